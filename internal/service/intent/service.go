package intent

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	rules "github.com/ann82/dv-assistant-sub003/internal/analysis/intent"
	"github.com/ann82/dv-assistant-sub003/internal/cache"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/observability"
)

// Result is a classification with its observability metadata.
type Result struct {
	Intent     conversation.Intent `json:"intent"`
	Confidence float64             `json:"confidence"`
	Source     Source              `json:"source"`
}

// Service classifies with the primary tier and falls back to the rules.
// Results are cached per normalised utterance.
type Service struct {
	primary  Classifier
	fallback Classifier
	cache    *cache.Cache[Result]
}

// Config wires the service. Primary may be nil; Fallback defaults to RuleClassifier.
type Config struct {
	Primary  Classifier
	Fallback Classifier
	Cache    *cache.Cache[Result]
}

func NewService(cfg Config) *Service {
	fallback := cfg.Fallback
	if fallback == nil {
		fallback = RuleClassifier{}
	}
	c := cfg.Cache
	if c == nil {
		c = cache.New[Result]("intent", 1000, time.Hour, cache.WithValidator(func(r Result) bool {
			return r.Intent.Valid()
		}))
	}
	return &Service{primary: cfg.Primary, fallback: fallback, cache: c}
}

// Classify always returns a valid intent; provider failures are logged and absorbed.
func (s *Service) Classify(ctx context.Context, utterance string) Result {
	key := cache.NormalizeKey(utterance)
	if key != "" {
		if cached, ok := s.cache.Get(key); ok {
			cached.Source = SourceCache
			observability.RecordIntent(string(cached.Intent), string(SourceCache), cached.Confidence)
			return cached
		}
	}

	result := s.classify(ctx, utterance)
	observability.RecordIntent(string(result.Intent), string(result.Source), result.Confidence)
	// A fallback caused by a provider outage is not cached, so the next call retries the provider.
	if key != "" && (result.Source == SourceProvider || s.primary == nil) {
		s.cache.Set(key, result)
	}
	return result
}

// ClassifyIntent is Classify without the metadata.
func (s *Service) ClassifyIntent(ctx context.Context, utterance string) conversation.Intent {
	return s.Classify(ctx, utterance).Intent
}

func (s *Service) classify(ctx context.Context, utterance string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[intent] classifier panic, using rules: %v", r)
			result = ruleResult(utterance)
		}
	}()

	if s.primary != nil {
		got, err := s.primary.Classify(ctx, utterance)
		if err == nil && got.Valid() {
			return Result{Intent: got, Confidence: rules.Confidence(utterance, got), Source: SourceProvider}
		}
		if err != nil {
			log.Warnf("[intent] provider classification failed, use fallback: %v", err)
		} else {
			log.Warnf("[intent] provider returned invalid intent %q, use fallback", got)
			observability.RecordIntent("invalid", string(SourceProvider), rules.Confidence(utterance, got))
		}
	}

	got, err := s.fallback.Classify(ctx, utterance)
	if err != nil || !got.Valid() {
		return ruleResult(utterance)
	}
	return Result{Intent: got, Confidence: rules.Confidence(utterance, got), Source: SourceFallback}
}

func ruleResult(utterance string) Result {
	d := rules.Classify(utterance)
	return Result{Intent: d.Intent, Confidence: d.Confidence, Source: SourceFallback}
}
