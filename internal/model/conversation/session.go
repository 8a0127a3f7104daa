package conversation

import "time"

const (
	// MaxHistory bounds Session.History; the oldest turn is evicted first.
	MaxHistory = 5
	// MaxFocusResults bounds FocusContext.Results.
	MaxFocusResults = 3
	// MaxContentLength bounds ResourceResult.Content.
	MaxContentLength = 200
	// FocusTimeout is how long a FocusContext stays usable for follow-ups.
	FocusTimeout = 5 * time.Minute
)

// Session captures one ongoing voice, SMS or web interaction.
type Session struct {
	Key              string        `json:"key"`
	History          []Turn        `json:"history"`
	LastIntent       Intent        `json:"lastIntent,omitempty"`
	LastQuery        string        `json:"lastQuery,omitempty"`
	LastResponse     string        `json:"lastResponse,omitempty"`
	LastQueryContext *FocusContext `json:"lastQueryContext,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Turn is one utterance/response exchange. Turns are never mutated after append.
type Turn struct {
	Intent    Intent    `json:"intent"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}

// FocusContext remembers the ranked results of the last search turn so that
// follow-ups such as "tell me about the second one" can be resolved.
type FocusContext struct {
	Intent           Intent           `json:"intent"`
	Query            string           `json:"query,omitempty"`
	Location         string           `json:"location,omitempty"`
	Results          []ResourceResult `json:"results"`
	FocusResultTitle string           `json:"focusResultTitle,omitempty"`
	MatchedResult    *ResourceResult  `json:"matchedResult,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	VoiceResponse    string           `json:"voiceResponse,omitempty"`
	SMSResponse      string           `json:"smsResponse,omitempty"`
}

// Expired reports whether the focus is older than FocusTimeout at now.
// A nil focus is always expired.
func (f *FocusContext) Expired(now time.Time) bool {
	if f == nil {
		return true
	}
	return now.Sub(f.CreatedAt) > FocusTimeout
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.History = append([]Turn(nil), s.History...)
	out.LastQueryContext = s.LastQueryContext.Clone()
	return &out
}

// Clone returns a deep copy of the focus context.
func (f *FocusContext) Clone() *FocusContext {
	if f == nil {
		return nil
	}
	out := *f
	out.Results = make([]ResourceResult, len(f.Results))
	for i, r := range f.Results {
		out.Results[i] = r.Clone()
	}
	if f.MatchedResult != nil {
		matched := f.MatchedResult.Clone()
		out.MatchedResult = &matched
	}
	return &out
}
