// Package app assembles the engine and its providers from configuration.
package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/analysis/location"
	"github.com/ann82/dv-assistant-sub003/internal/cache"
	"github.com/ann82/dv-assistant-sub003/internal/config"
	"github.com/ann82/dv-assistant-sub003/internal/provider"
	"github.com/ann82/dv-assistant-sub003/internal/provider/ark"
	"github.com/ann82/dv-assistant-sub003/internal/provider/openai"
	"github.com/ann82/dv-assistant-sub003/internal/provider/resilience"
	"github.com/ann82/dv-assistant-sub003/internal/provider/tavily"
	"github.com/ann82/dv-assistant-sub003/internal/service/assistant"
	"github.com/ann82/dv-assistant-sub003/internal/service/followup"
	"github.com/ann82/dv-assistant-sub003/internal/service/intent"
	"github.com/ann82/dv-assistant-sub003/internal/service/response"
	"github.com/ann82/dv-assistant-sub003/internal/service/rewrite"
	"github.com/ann82/dv-assistant-sub003/internal/service/session"
)

// App holds the wired engine. Background cache sweeps stop when the context
// passed to New is cancelled.
type App struct {
	Config *config.Config
	Engine *assistant.Engine

	LLM      provider.LLM
	Searcher provider.Searcher
}

// New wires every component. Missing provider credentials are not an error:
// the engine degrades to rules and the hotline fallback.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	policy := resilience.Policy{
		Timeout:     cfg.Resilience.Timeout,
		MaxAttempts: cfg.Resilience.MaxAttempts,
		BaseDelay:   cfg.Resilience.RetryBackoff,
		Rate:        cfg.Resilience.RateLimit,
		Interval:    cfg.Resilience.RateInterval,
		Burst:       cfg.Resilience.RateBurst,
	}

	llm, err := newLLM(ctx, cfg.AI, policy)
	if err != nil {
		log.Warnf("[app] AI provider unavailable, continuing with rules and fallbacks: %v", err)
		llm = nil
	}
	searcher, err := newSearcher(cfg.Search, policy)
	if err != nil {
		log.Warnf("[app] search provider unavailable: %v", err)
		searcher = nil
	}

	intentCache := cache.New[intent.Result]("intent", cfg.Cache.MaxEntries, cfg.Cache.IntentTTL,
		cache.WithValidator(func(r intent.Result) bool { return r.Intent.Valid() }))
	responseCache := cache.New[*response.FormattedResponse]("response", cfg.Cache.MaxEntries, cfg.Cache.ResponseTTL,
		cache.WithValidator(func(r *response.FormattedResponse) bool { return r != nil && r.Success }))
	placeCache := cache.New[*location.Place]("geocode", cfg.Cache.MaxEntries, cfg.Cache.ResponseTTL)

	intentCache.StartPeriodicEviction(ctx, cfg.Cache.EvictionInterval)
	responseCache.StartPeriodicEviction(ctx, cfg.Cache.EvictionInterval)
	placeCache.StartPeriodicEviction(ctx, cfg.Cache.EvictionInterval)

	sessions := session.NewStore(session.NewMemoryBackend())
	rewriter := rewrite.New(location.NewCachedGeocoder(location.NewGazetteerGeocoder(), placeCache), sessions)

	intentCfg := intent.Config{Cache: intentCache}
	var followupOpts []followup.Option
	routerCfg := response.Config{
		Locator:  rewriter,
		Cache:    responseCache,
		MinScore: cfg.Search.MinScore,
	}
	if cfg.AI.Temperature != nil {
		routerCfg.Temperature = float32(*cfg.AI.Temperature)
	}
	// Interfaces are only assigned when set so nil checks downstream hold.
	if llm != nil {
		routerCfg.Generator = llm
		if cfg.AI.ClassifierEnabled {
			intentCfg.Primary = intent.NewProviderClassifier(llm)
		}
		if cfg.AI.FollowUpEscalation {
			followupOpts = append(followupOpts, followup.WithEscalation(llm))
		}
	}
	if searcher != nil {
		routerCfg.Searcher = searcher
	}

	engine := assistant.New(assistant.Config{
		Intents:   intent.NewService(intentCfg),
		Sessions:  sessions,
		Rewriter:  rewriter,
		FollowUps: followup.NewResolver(followupOpts...),
		Router:    response.NewRouter(routerCfg),
	})

	a := &App{Config: cfg, Engine: engine}
	if llm != nil {
		a.LLM = llm
	}
	if searcher != nil {
		a.Searcher = searcher
	}
	log.Infof("[app] engine ready ai=%s search=%t", providerName(cfg.AI, llm != nil), searcher != nil)
	return a, nil
}

func newLLM(ctx context.Context, cfg config.AIConfig, policy resilience.Policy) (*resilience.LLM, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	var client provider.LLM
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c, err := openai.New(openai.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL})
		if err != nil {
			return nil, err
		}
		client = c
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("create ark chat model: %w", err)
		}
		c, err := ark.New(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
	return resilience.WrapLLM(client, resilience.NewExecutor(cfg.Provider, policy)), nil
}

func newSearcher(cfg config.SearchConfig, policy resilience.Policy) (*resilience.Searcher, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := tavily.New(tavily.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Depth:      cfg.Depth,
		MaxResults: cfg.MaxResults,
	})
	if err != nil {
		return nil, err
	}
	return resilience.WrapSearcher(client, resilience.NewExecutor("tavily", policy)), nil
}

func providerName(cfg config.AIConfig, ok bool) string {
	if !ok {
		return "none"
	}
	return cfg.Provider
}
