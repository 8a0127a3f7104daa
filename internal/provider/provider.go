// Package provider defines the collaborator contracts the engine consumes:
// classification and generation from a language model, and ranked web search.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/tidwall/gjson"
)

// ErrInvalidLabel is returned when a classifier answers outside the allowed labels.
var ErrInvalidLabel = errors.New("label outside allowed set")

// GenerateOptions tunes a single completion.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float32
}

// Generator produces free-form text from a message list.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message, opts GenerateOptions) (string, error)
}

// Classifier picks exactly one of labels for prompt.
type Classifier interface {
	Classify(ctx context.Context, prompt string, labels []string) (string, error)
}

// LLM is a model that can both classify and generate.
type LLM interface {
	Generator
	Classifier
}

// SearchResult is one ranked hit from a search provider.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse carries the results for a query.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string) (*SearchResponse, error)
}

// HTTPError reports a non-2xx answer from an HTTP-backed provider.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether repeating the request may succeed.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// MatchLabel validates a raw classifier answer against labels. Answers may be a
// bare label or a JSON object with a "label" field.
func MatchLabel(raw string, labels []string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if start, end := strings.Index(candidate, "{"), strings.LastIndex(candidate, "}"); start >= 0 && end > start {
		if v := gjson.Get(candidate[start:end+1], "label"); v.Exists() {
			candidate = v.String()
		}
	}
	candidate = strings.ToLower(strings.Trim(strings.TrimSpace(candidate), "\"'`."))

	for _, label := range labels {
		if strings.EqualFold(candidate, label) {
			return label, nil
		}
	}
	// Tolerate "find shelter" for "find_shelter".
	alt := strings.NewReplacer(" ", "_", "-", "_").Replace(candidate)
	for _, label := range labels {
		if strings.EqualFold(alt, label) {
			return label, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLabel, raw)
}
