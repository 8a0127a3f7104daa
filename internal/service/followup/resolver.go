// Package followup decides whether an utterance refers back to the previous
// turn's results and, if so, answers from them without a new search.
package followup

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/analysis/location"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/observability"
	"github.com/ann82/dv-assistant-sub003/internal/provider"
)

// ResponseType names the shape of a follow-up answer.
type ResponseType string

const (
	TypeSendDetails      ResponseType = "send_details"
	TypeLocationInfo     ResponseType = "location_info"
	TypeContactInfo      ResponseType = "contact_info"
	TypeSpecificResult   ResponseType = "specific_result"
	TypeGeneralFollowUp  ResponseType = "general_follow_up"
	TypeOffTopicRedirect ResponseType = "off_topic_redirect"
)

// Response is a follow-up answer built from remembered results.
type Response struct {
	Type          ResponseType                  `json:"type"`
	Intent        conversation.Intent           `json:"intent"`
	VoiceResponse string                        `json:"voiceResponse"`
	SMSResponse   string                        `json:"smsResponse"`
	Results       []conversation.ResourceResult `json:"results"`
	MatchedResult *conversation.ResourceResult  `json:"matchedResult,omitempty"`
}

// Resolver runs the follow-up pipeline: recency gate, pattern gate, focus
// extraction, fuzzy match, then synthesis.
type Resolver struct {
	escalator provider.Classifier
	now       func() time.Time
}

type Option func(*Resolver)

// WithEscalation lets utterances that miss every pattern be judged by a model.
func WithEscalation(c provider.Classifier) Option {
	return func(r *Resolver) {
		r.escalator = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the follow-up answer, or false when the utterance is not a
// follow-up to focus. The utterance's intent is treated as unknown.
func (r *Resolver) Resolve(ctx context.Context, utterance string, focus *conversation.FocusContext) (*Response, bool) {
	return r.ResolveIntent(ctx, utterance, "", focus)
}

// ResolveIntent is Resolve for an utterance already classified as intent. An
// intent naming another topic than the focus only counts as a follow-up when
// the utterance points at the remembered results explicitly.
func (r *Resolver) ResolveIntent(ctx context.Context, utterance string, intent conversation.Intent, focus *conversation.FocusContext) (*Response, bool) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" || focus.Expired(r.now()) {
		return nil, false
	}

	offTopic := focus.Intent == conversation.IntentOffTopic
	if !offTopic && len(focus.Results) == 0 {
		return nil, false
	}
	if names := location.ExtractPrefixed(utterance); names != "" && !strings.EqualFold(names, focus.Location) {
		// A new place is a new search, not a follow-up.
		return nil, false
	}
	shift := topicShift(intent, focus.Intent)

	var resp *Response
	if offTopic {
		if shift || (!matchesFollowUpPattern(utterance) && !r.escalate(ctx, utterance, focus)) {
			return nil, false
		}
		resp = offTopicRedirect(focus)
	} else {
		matched, ref := r.match(utterance, focus)
		cat := categorize(utterance)
		if !r.accepts(ctx, utterance, intent, focus, shift, cat, ref) {
			log.Debugf("[followup] not a follow-up intent=%s focus=%s ref=%d", intent, focus.Intent, ref)
			return nil, false
		}
		resp = synthesize(cat, focus, matched)
	}
	observability.RecordFollowUp(string(resp.Type))
	log.Debugf("[followup] resolved type=%s matched=%t", resp.Type, resp.MatchedResult != nil)
	return resp, true
}

// topicShift reports whether intent names a concrete topic other than the
// focus. General information carries no topic of its own.
func topicShift(intent, focusIntent conversation.Intent) bool {
	return intent != "" && intent != conversation.IntentGeneralInformation && intent != focusIntent
}

func (r *Resolver) accepts(ctx context.Context, utterance string, intent conversation.Intent, focus *conversation.FocusContext, shift bool, cat category, ref reference) bool {
	switch {
	case shift:
		return ref == refExplicit || (cat != categoryNone && pluralRefPattern.MatchString(utterance))
	case intent == focus.Intent:
		return matchesFollowUpPattern(utterance) || r.escalate(ctx, utterance, focus)
	default:
		return ref == refExplicit ||
			cat != categoryNone ||
			detailPattern.MatchString(utterance) ||
			pluralRefPattern.MatchString(utterance) ||
			r.escalate(ctx, utterance, focus)
	}
}

// escalate asks the model for a yes/no verdict. Any failure means "not a follow-up".
func (r *Resolver) escalate(ctx context.Context, utterance string, focus *conversation.FocusContext) bool {
	if r.escalator == nil {
		return false
	}
	label, err := r.escalator.Classify(ctx, escalationPrompt(utterance, focus), []string{"yes", "no"})
	if err != nil {
		log.Warnf("[followup] escalation failed, treating as new request: %v", err)
		return false
	}
	return label == "yes"
}

func escalationPrompt(utterance string, focus *conversation.FocusContext) string {
	var b strings.Builder
	b.WriteString("Decide whether the caller's new message refers back to the results they were just given.\n")
	if focus.Query != "" {
		fmt.Fprintf(&b, "Previous request: %s\n", focus.Query)
	}
	if len(focus.Results) > 0 {
		titles := make([]string, 0, len(focus.Results))
		for _, res := range focus.Results {
			titles = append(titles, res.Title)
		}
		fmt.Fprintf(&b, "Results given: %s\n", strings.Join(titles, "; "))
	}
	fmt.Fprintf(&b, "New message: %s\n", utterance)
	b.WriteString("Answer yes if it is a follow-up about those results, otherwise no.")
	return b.String()
}

// reference says how a matched result was found.
type reference int

const (
	refNone reference = iota
	// refFuzzy is a similarity hit on the whole utterance.
	refFuzzy
	// refLocation is a hit on the remembered location.
	refLocation
	// refExplicit is an ordinal, a resolved demonstrative or a named result.
	refExplicit
)

// match extracts a focus target and resolves it to one result, or nil.
func (r *Resolver) match(utterance string, focus *conversation.FocusContext) (*conversation.ResourceResult, reference) {
	results := focus.Results

	if focus.Location != "" && location.Mentions(utterance, focus.Location) {
		if m, _ := BestMatch(focus.Location, results); m != nil {
			return m, refLocation
		}
	}

	if n, ok := ordinalIndex(utterance); ok {
		if n == -1 {
			n = len(results)
		}
		if n >= 1 && n <= len(results) {
			picked := results[n-1].Clone()
			return &picked, refExplicit
		}
		return nil, refNone
	}

	if demonstrativePattern.MatchString(utterance) {
		if focus.MatchedResult != nil {
			picked := focus.MatchedResult.Clone()
			return &picked, refExplicit
		}
		if focus.FocusResultTitle != "" {
			if m, _ := BestMatch(focus.FocusResultTitle, results); m != nil {
				return m, refExplicit
			}
		}
		if len(results) == 1 {
			picked := results[0].Clone()
			return &picked, refExplicit
		}
	}

	if phrase := capitalizedPhrase(utterance); phrase != "" {
		if m, _ := BestMatch(phrase, results); m != nil {
			return m, refExplicit
		}
	}

	if m, _ := BestMatch(utterance, results); m != nil {
		return m, refFuzzy
	}
	return nil, refNone
}
