// Package tavily is a minimal client for the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/ann82/dv-assistant-sub003/internal/provider"
)

const maxErrorBody = 512

// Config configures the client.
type Config struct {
	APIKey     string
	BaseURL    string
	Depth      string
	MaxResults int
	HTTPClient *http.Client
}

// Client implements provider.Searcher.
type Client struct {
	apiKey     string
	baseURL    string
	depth      string
	maxResults int
	http       *http.Client
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	depth := cfg.Depth
	if depth == "" {
		depth = "advanced"
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		depth:      depth,
		maxResults: maxResults,
		http:       httpClient,
	}, nil
}

// Search posts the query to /search and decodes the ranked results.
func (c *Client) Search(ctx context.Context, query string) (*provider.SearchResponse, error) {
	body, err := c.requestBody(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tavily: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(raw)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &provider.HTTPError{Provider: "tavily", StatusCode: resp.StatusCode, Body: snippet}
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("tavily: malformed response body")
	}

	return parseResponse(query, raw), nil
}

func (c *Client) requestBody(query string) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"query", query},
		{"search_depth", c.depth},
		{"max_results", c.maxResults},
		{"include_answer", false},
		{"include_raw_content", false},
	} {
		body, err = sjson.SetBytes(body, kv.path, kv.value)
		if err != nil {
			return nil, fmt.Errorf("tavily: encode %s: %w", kv.path, err)
		}
	}
	return body, nil
}

func parseResponse(query string, raw []byte) *provider.SearchResponse {
	out := &provider.SearchResponse{Query: query}
	if q := gjson.GetBytes(raw, "query"); q.Exists() && q.String() != "" {
		out.Query = q.String()
	}
	gjson.GetBytes(raw, "results").ForEach(func(_, item gjson.Result) bool {
		out.Results = append(out.Results, provider.SearchResult{
			Title:   strings.TrimSpace(item.Get("title").String()),
			URL:     strings.TrimSpace(item.Get("url").String()),
			Content: strings.TrimSpace(item.Get("content").String()),
			Score:   item.Get("score").Float(),
		})
		return true
	})
	return out
}
