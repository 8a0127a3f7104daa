// Package response chooses between a search-first and a generate-first path
// for each utterance and renders the answer for every channel.
package response

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ann82/dv-assistant-sub003/internal/cache"
	"github.com/ann82/dv-assistant-sub003/internal/format"
	"github.com/ann82/dv-assistant-sub003/internal/logging"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/observability"
	"github.com/ann82/dv-assistant-sub003/internal/provider"
)

// Response sources.
const (
	SourceSearch           = "search"
	SourceSearchEmpty      = "search_empty"
	SourceAI               = "ai"
	SourceSearchFallbackAI = "search_fallback_ai"
	SourceFallback         = "fallback"
	SourceError            = "error"
)

const (
	// DefaultCacheTTL is how long a successful response is reused.
	DefaultCacheTTL = time.Hour
	// MaxResults caps the resources returned to a caller.
	MaxResults = conversation.MaxFocusResults

	defaultTemperature = 0.7
)

// RouteContext carries what the router needs to know about the session.
type RouteContext struct {
	SessionKey string
	Intent     conversation.Intent
	// Location is the location remembered from earlier turns, if any.
	Location  string
	LastQuery string
	History   []conversation.Turn
}

// Options tunes a single call.
type Options struct {
	Language   string
	MaxResults int
	SkipCache  bool
}

func (o Options) maxResults() int {
	if o.MaxResults <= 0 || o.MaxResults > MaxResults {
		return MaxResults
	}
	return o.MaxResults
}

// FormattedResponse is the router's answer rendered for every channel.
type FormattedResponse struct {
	Success  bool                          `json:"success"`
	Source   string                        `json:"source"`
	Path     string                        `json:"path,omitempty"`
	Query    string                        `json:"query,omitempty"`
	Voice    string                        `json:"voice"`
	SMS      string                        `json:"sms"`
	Web      string                        `json:"web"`
	Summary  string                        `json:"summary"`
	Results  []conversation.ResourceResult `json:"results,omitempty"`
	CacheHit bool                          `json:"cacheHit"`
}

// Text returns the rendering for channel.
func (r *FormattedResponse) Text(channel conversation.Channel) string {
	switch channel {
	case conversation.ChannelVoice:
		return r.Voice
	case conversation.ChannelSMS:
		return r.SMS
	default:
		return r.Web
	}
}

func (r *FormattedResponse) clone() *FormattedResponse {
	out := *r
	if r.Results != nil {
		out.Results = make([]conversation.ResourceResult, len(r.Results))
		for i, res := range r.Results {
			out.Results[i] = res.Clone()
		}
	}
	return &out
}

// cacheable reports whether the response may be served again. Degraded
// answers are recomputed so a recovered provider is used on the next call.
func (r *FormattedResponse) cacheable() bool {
	switch r.Source {
	case SourceSearch, SourceSearchEmpty, SourceAI:
		return r.Success
	default:
		return false
	}
}

// Config wires the router's collaborators. Nil providers disable their path.
type Config struct {
	Searcher    provider.Searcher
	Generator   provider.Generator
	Locator     Locator
	Prompts     *PromptManager
	Cache       *cache.Cache[*FormattedResponse]
	MinScore    float64
	Temperature float32
}

// Router is safe for concurrent use.
type Router struct {
	search   Path
	generate Path
	cache    *cache.Cache[*FormattedResponse]
	group    singleflight.Group
}

func NewRouter(cfg Config) *Router {
	if cfg.Prompts == nil {
		cfg.Prompts = NewPromptManager()
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.New[*FormattedResponse]("response", 1000, DefaultCacheTTL)
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultMinScore
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	return &Router{
		search: &searchFirstPath{
			searcher: cfg.Searcher,
			locator:  cfg.Locator,
			minScore: cfg.MinScore,
		},
		generate: newGenerateFirstPath(cfg.Generator, cfg.Prompts, cfg.Temperature),
		cache:    cfg.Cache,
	}
}

// GetResponse never returns nil. Failures are reported through Success and
// Source rather than an error.
func (r *Router) GetResponse(ctx context.Context, utterance string, rc RouteContext, channel conversation.Channel, opts Options) (resp *FormattedResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("[response] recovered from panic for %s: %v", logging.MaskKey(rc.SessionKey), rec)
			resp = errorResponse()
		}
		observability.RecordRoute(resp.Path, resp.Source)
	}()

	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return errorResponse()
	}

	key := cacheKey(utterance, rc, channel)
	if !opts.SkipCache {
		if cached, ok := r.cache.Get(key); ok {
			hit := cached.clone()
			hit.CacheHit = true
			return hit
		}
	}

	req := &request{utterance: utterance, rc: rc, channel: channel, opts: opts}
	v, _, shared := r.group.Do(key, func() (any, error) {
		out := r.route(ctx, req)
		if out.cacheable() {
			r.cache.Set(key, out.clone())
		}
		return out, nil
	})
	if shared {
		log.Debugf("[response] shared in-flight result for %s", logging.MaskKey(rc.SessionKey))
	}
	return v.(*FormattedResponse).clone()
}

func (r *Router) route(ctx context.Context, req *request) *FormattedResponse {
	if !IsFactualLocationSearch(req.utterance) {
		resp, err := r.generate.Respond(ctx, req)
		if err != nil {
			log.Warnf("[response] generation failed, using hotline fallback: %v", err)
			return fallbackResponse()
		}
		return resp
	}

	resp, err := r.search.Respond(ctx, req)
	if err == nil {
		return resp
	}
	log.Warnf("[response] search failed, falling back to generation: %v", err)

	resp, genErr := r.generate.Respond(ctx, req)
	if genErr != nil {
		log.Errorf("[response] all paths failed: search: %v; generate: %v", err, genErr)
		return errorResponse()
	}
	resp.Source = SourceSearchFallbackAI
	return resp
}

// cacheKey includes the remembered location because the same words resolve
// to different places in different sessions.
func cacheKey(utterance string, rc RouteContext, channel conversation.Channel) string {
	return fmt.Sprintf("%s|%s|%s", cache.NormalizeKey(utterance), channel, cache.NormalizeKey(rc.Location))
}

func fallbackResponse() *FormattedResponse {
	return &FormattedResponse{
		Success: true,
		Source:  SourceFallback,
		Path:    PathGenerateFirst,
		Voice:   HotlineMessage,
		SMS:     hotlineSMS,
		Web:     format.WebParagraph(HotlineMessage),
		Summary: "Referred to the National Domestic Violence Hotline",
	}
}

func errorResponse() *FormattedResponse {
	return &FormattedResponse{
		Success: false,
		Source:  SourceError,
		Voice:   HotlineMessage,
		SMS:     hotlineSMS,
		Web:     format.WebParagraph(HotlineMessage),
		Summary: "Unable to process request",
	}
}
