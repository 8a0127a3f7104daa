// Package assistant runs one caller turn end to end: classify, read context,
// resolve follow-ups, route to search or generation, and record the turn.
package assistant

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/analysis/location"
	"github.com/ann82/dv-assistant-sub003/internal/format"
	"github.com/ann82/dv-assistant-sub003/internal/logging"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/service/followup"
	"github.com/ann82/dv-assistant-sub003/internal/service/intent"
	"github.com/ann82/dv-assistant-sub003/internal/service/response"
	"github.com/ann82/dv-assistant-sub003/internal/service/rewrite"
	"github.com/ann82/dv-assistant-sub003/internal/service/session"
)

// ErrInvalidInput is returned for a blank session key or utterance.
var ErrInvalidInput = errors.New("session key and utterance are required")

const (
	GoodbyeMessage = "Thank you for reaching out. Please stay safe. If you need help later, call the National Domestic Violence Hotline at 1-800-799-7233, or 911 in an emergency. Goodbye."
	EmergencyLine  = "If you are in immediate danger, please call 911 now."

	SourceFollowUp = "followup"
	SourceRedirect = "redirect"
	SourceGoodbye  = "goodbye"
)

// Request is one caller utterance.
type Request struct {
	SessionKey string               `json:"sessionKey"`
	Utterance  string               `json:"utterance"`
	Channel    conversation.Channel `json:"channel"`
	Language   string               `json:"language,omitempty"`
}

// Reply is the engine's answer for one turn.
type Reply struct {
	SessionKey    string                        `json:"sessionKey"`
	Channel       conversation.Channel          `json:"channel"`
	Intent        conversation.Intent           `json:"intent"`
	Confidence    float64                       `json:"confidence"`
	IntentSource  intent.Source                 `json:"intentSource"`
	Success       bool                          `json:"success"`
	Source        string                        `json:"source"`
	Query         string                        `json:"query,omitempty"`
	FollowUp      bool                          `json:"followUp"`
	FollowUpType  followup.ResponseType         `json:"followUpType,omitempty"`
	Text          string                        `json:"text"`
	Voice         string                        `json:"voice"`
	SMS           string                        `json:"sms"`
	SMSSegments   []string                      `json:"smsSegments,omitempty"`
	Web           string                        `json:"web"`
	Results       []conversation.ResourceResult `json:"results,omitempty"`
	MatchedResult *conversation.ResourceResult  `json:"matchedResult,omitempty"`
	CacheHit      bool                          `json:"cacheHit"`
	Ended         bool                          `json:"ended"`
}

func (r *Reply) render() {
	switch r.Channel {
	case conversation.ChannelVoice:
		r.Text = r.Voice
	case conversation.ChannelSMS:
		r.Text = r.SMS
	default:
		r.Text = r.Web
	}
	r.SMSSegments = format.Segments(r.SMS, format.SMSBudget)
}

// Config wires the engine. Nil components get in-memory, provider-less defaults.
type Config struct {
	Intents   *intent.Service
	Sessions  *session.Store
	Rewriter  *rewrite.Rewriter
	FollowUps *followup.Resolver
	Router    *response.Router
}

// Engine is safe for concurrent use. Turns of one session are serialised.
type Engine struct {
	intents   *intent.Service
	sessions  *session.Store
	rewriter  *rewrite.Rewriter
	followups *followup.Resolver
	router    *response.Router
	turns     *session.KeyedMutex
}

func New(cfg Config) *Engine {
	e := &Engine{
		intents:   cfg.Intents,
		sessions:  cfg.Sessions,
		rewriter:  cfg.Rewriter,
		followups: cfg.FollowUps,
		router:    cfg.Router,
		turns:     session.NewKeyedMutex(),
	}
	if e.intents == nil {
		e.intents = intent.NewService(intent.Config{})
	}
	if e.sessions == nil {
		e.sessions = session.NewStore(nil)
	}
	if e.rewriter == nil {
		e.rewriter = rewrite.New(location.NewGazetteerGeocoder(), e.sessions)
	}
	if e.followups == nil {
		e.followups = followup.NewResolver()
	}
	if e.router == nil {
		e.router = response.NewRouter(response.Config{Locator: e.rewriter})
	}
	return e
}

// HandleUtterance runs the full turn. Provider failures never surface as
// errors; only invalid input does.
func (e *Engine) HandleUtterance(ctx context.Context, req Request) (*Reply, error) {
	key := strings.TrimSpace(req.SessionKey)
	utterance := strings.TrimSpace(req.Utterance)
	if key == "" || utterance == "" {
		return nil, ErrInvalidInput
	}
	if req.Channel == "" {
		req.Channel = conversation.ChannelWeb
	}

	unlock := e.turns.Lock(key)
	defer unlock()

	cls := e.intents.Classify(ctx, utterance)
	log.Infof("[assistant] %s intent=%s source=%s confidence=%.2f", logging.MaskKey(key), cls.Intent, cls.Source, cls.Confidence)

	reply := &Reply{
		SessionKey:   key,
		Channel:      req.Channel,
		Intent:       cls.Intent,
		Confidence:   cls.Confidence,
		IntentSource: cls.Source,
	}

	if cls.Intent == conversation.IntentEndConversation {
		e.sessions.Clear(ctx, key)
		reply.Success = true
		reply.Source = SourceGoodbye
		reply.Ended = true
		reply.Voice, reply.SMS, reply.Web = GoodbyeMessage, GoodbyeMessage, format.WebParagraph(GoodbyeMessage)
		reply.render()
		return reply, nil
	}

	sess, _ := e.sessions.Get(ctx, key)
	var focus *conversation.FocusContext
	if sess != nil {
		focus = sess.LastQueryContext
	}

	if focus != nil && resolvesFollowUps(cls.Intent) {
		if fu, ok := e.followups.ResolveIntent(ctx, utterance, cls.Intent, focus); ok {
			e.applyFollowUp(reply, fu)
			e.record(ctx, key, session.UpdateInput{
				Intent:        fu.Intent,
				Query:         utterance,
				Response:      fu.VoiceResponse,
				MatchedResult: fu.MatchedResult,
			})
			reply.render()
			return reply, nil
		}
	}

	if cls.Intent == conversation.IntentOffTopic {
		reply.Success = true
		reply.Source = SourceRedirect
		reply.Voice, reply.SMS, reply.Web = followup.OffTopicRedirect, followup.OffTopicRedirect, format.WebParagraph(followup.OffTopicRedirect)
		e.record(ctx, key, session.UpdateInput{Intent: cls.Intent, Query: utterance, Response: followup.OffTopicRedirect})
		reply.render()
		return reply, nil
	}

	rc := response.RouteContext{SessionKey: key, Intent: cls.Intent}
	if sess != nil {
		rc.LastQuery = sess.LastQuery
		rc.History = sess.History
	}
	if focus != nil {
		rc.Location = focus.Location
	}

	resp := e.router.GetResponse(ctx, utterance, rc, req.Channel, response.Options{Language: req.Language})
	reply.Success = resp.Success
	reply.Source = resp.Source
	reply.Query = resp.Query
	if reply.Query == "" {
		// Generated answers carry no search query; report the one the turn implies.
		reply.Query = e.rewriter.Rewrite(ctx, utterance, cls.Intent, key)
	}
	reply.CacheHit = resp.CacheHit
	reply.Voice, reply.SMS, reply.Web = resp.Voice, resp.SMS, resp.Web
	reply.Results = resp.Results

	if cls.Intent == conversation.IntentEmergency {
		reply.Voice = EmergencyLine + " " + reply.Voice
		reply.SMS = EmergencyLine + " " + reply.SMS
		reply.Web = format.WebParagraph(EmergencyLine) + reply.Web
	}

	e.record(ctx, key, session.UpdateInput{
		Intent:        cls.Intent,
		Query:         utterance,
		Response:      reply.Voice,
		Location:      rc.Location,
		SearchResults: resp.Results,
		VoiceResponse: reply.Voice,
		SMSResponse:   reply.SMS,
	})
	reply.render()
	return reply, nil
}

// resolvesFollowUps reports whether an utterance of this intent may refer
// back to earlier results. Safety and session-ending turns never do.
func resolvesFollowUps(i conversation.Intent) bool {
	switch i {
	case conversation.IntentEmergency, conversation.IntentEndConversation, conversation.IntentOffTopic:
		return false
	default:
		return true
	}
}

func (e *Engine) applyFollowUp(reply *Reply, fu *followup.Response) {
	reply.Intent = fu.Intent
	reply.FollowUp = true
	reply.FollowUpType = fu.Type
	reply.Success = true
	reply.Source = SourceFollowUp
	reply.Voice = fu.VoiceResponse
	reply.SMS = fu.SMSResponse
	if reply.SMS == "" {
		reply.SMS = format.Truncate(fu.VoiceResponse, format.SMSBudget)
	}
	reply.Web = format.WebParagraph(fu.VoiceResponse)
	reply.Results = fu.Results
	reply.MatchedResult = fu.MatchedResult
}

func (e *Engine) record(ctx context.Context, key string, in session.UpdateInput) {
	if err := e.sessions.Update(ctx, key, in); err != nil {
		log.Warnf("[assistant] update context for %s failed: %v", logging.MaskKey(key), err)
	}
}
