package response

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/analysis/location"
	"github.com/ann82/dv-assistant-sub003/internal/format"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/provider"
	"github.com/ann82/dv-assistant-sub003/internal/service/rewrite"
)

var (
	ErrSearchUnavailable    = errors.New("search provider not configured")
	ErrGeneratorUnavailable = errors.New("generator not configured")
)

// Path names.
const (
	PathSearchFirst   = "search_first"
	PathGenerateFirst = "generate_first"
)

// historyTurns is how many past turns are replayed to the generator.
const historyTurns = 3

type request struct {
	utterance string
	rc        RouteContext
	channel   conversation.Channel
	opts      Options
}

// Path produces a formatted response for a request or fails.
type Path interface {
	Name() string
	Respond(ctx context.Context, req *request) (*FormattedResponse, error)
}

// Locator resolves where the caller is asking about.
type Locator interface {
	Locate(ctx context.Context, utterance, sessionKey string) *location.Place
}

type searchFirstPath struct {
	searcher provider.Searcher
	locator  Locator
	minScore float64
}

func (p *searchFirstPath) Name() string { return PathSearchFirst }

func (p *searchFirstPath) Respond(ctx context.Context, req *request) (*FormattedResponse, error) {
	if p.searcher == nil {
		return nil, ErrSearchUnavailable
	}

	place := p.place(ctx, req)
	query := rewrite.Build(req.utterance, searchIntent(req.rc.Intent), place)
	placeName := ""
	if place != nil {
		placeName = place.Name
	}

	resp, err := p.searcher.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := FilterResults(resp.Results, p.minScore, req.opts.maxResults())
	log.Debugf("[response] search returned %d hits, %d usable", len(resp.Results), len(results))
	if len(results) == 0 {
		msg := NoSheltersMessage(placeName)
		sms := "No shelters found. " + hotlineSMS
		if placeName != "" {
			sms = "No shelters found near " + placeName + ". " + hotlineSMS
		}
		return &FormattedResponse{
			Success: true,
			Source:  SourceSearchEmpty,
			Path:    PathSearchFirst,
			Query:   query,
			Voice:   msg,
			SMS:     format.Truncate(sms, format.SMSBudget),
			Web:     format.WebParagraph(msg),
			Summary: "No shelters found",
		}, nil
	}

	intro := fmt.Sprintf("I found %d %s", len(results), pluralShelter(len(results)))
	if placeName != "" {
		intro += " near " + placeName
	}
	summary := intro
	intro += "."

	return &FormattedResponse{
		Success: true,
		Source:  SourceSearch,
		Path:    PathSearchFirst,
		Query:   query,
		Voice:   format.VoiceList(intro, results) + " Would you like more details about any of these, or should I text them to you?",
		SMS:     format.SMSList(intro, results),
		Web:     format.WebList(intro, results),
		Summary: summary,
		Results: results,
	}, nil
}

func (p *searchFirstPath) place(ctx context.Context, req *request) *location.Place {
	if p.locator != nil {
		if place := p.locator.Locate(ctx, req.utterance, req.rc.SessionKey); place != nil && place.Name != "" {
			return place
		}
	}
	if req.rc.Location != "" {
		return &location.Place{Name: req.rc.Location, Country: "US", Domestic: true}
	}
	return nil
}

// searchIntent picks the intent the query is rewritten for. This path only
// runs for shelter-style requests, so an unknown or general intent searches
// for shelters.
func searchIntent(i conversation.Intent) conversation.Intent {
	if i == "" || i == conversation.IntentGeneralInformation {
		return conversation.IntentShelter
	}
	return i
}

func pluralShelter(n int) string {
	if n == 1 {
		return "shelter"
	}
	return "shelters"
}

type generateFirstPath struct {
	generator   provider.Generator
	prompts     *PromptManager
	template    prompt.ChatTemplate
	temperature float32
}

func newGenerateFirstPath(generator provider.Generator, prompts *PromptManager, temperature float32) *generateFirstPath {
	return &generateFirstPath{
		generator: generator,
		prompts:   prompts,
		template: prompt.FromMessages(schema.FString,
			schema.SystemMessage("{system}"),
			schema.MessagesPlaceholder("history", true),
			schema.UserMessage("{query}"),
		),
		temperature: temperature,
	}
}

func (p *generateFirstPath) Name() string { return PathGenerateFirst }

func (p *generateFirstPath) Respond(ctx context.Context, req *request) (*FormattedResponse, error) {
	if p.generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	system := p.prompts.BuildSystemPrompt(req.channel, req.rc.Intent, summarize(req.rc), req.opts.Language)
	messages, err := p.template.Format(ctx, map[string]any{
		"system":  system,
		"history": historyMessages(req.rc.History),
		"query":   req.utterance,
	})
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}

	text, err := p.generator.Generate(ctx, messages, provider.GenerateOptions{
		MaxTokens:   p.prompts.Template(req.channel).MaxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return nil, err
	}
	text = plainText(text)
	if text == "" {
		return nil, errors.New("generator returned empty text")
	}

	stripped := StripGreeting(text)
	return &FormattedResponse{
		Success: true,
		Source:  SourceAI,
		Path:    PathGenerateFirst,
		Voice:   text,
		SMS:     format.Truncate(stripped, format.SMSBudget),
		Web:     format.WebParagraph(text),
		Summary: format.Truncate(stripped, 100),
	}, nil
}

func historyMessages(turns []conversation.Turn) []*schema.Message {
	if len(turns) > historyTurns {
		turns = turns[len(turns)-historyTurns:]
	}
	messages := make([]*schema.Message, 0, len(turns)*2)
	for _, t := range turns {
		if t.Query != "" {
			messages = append(messages, schema.UserMessage(t.Query))
		}
		if t.Response != "" {
			messages = append(messages, schema.AssistantMessage(t.Response, nil))
		}
	}
	return messages
}

func summarize(rc RouteContext) string {
	var parts []string
	if rc.Location != "" {
		parts = append(parts, "the caller is near "+rc.Location)
	}
	if rc.LastQuery != "" {
		parts = append(parts, fmt.Sprintf("their previous request was %q", rc.LastQuery))
	}
	return strings.Join(parts, "; ")
}
