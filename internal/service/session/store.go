package session

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/analysis/location"
	"github.com/ann82/dv-assistant-sub003/internal/logging"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
)

// ErrInvalidInput is returned for a blank session key.
var ErrInvalidInput = errors.New("session key is required")

// UpdateInput describes one completed turn.
type UpdateInput struct {
	Intent   conversation.Intent
	Query    string
	Response string
	// Location is remembered when the query itself names no place.
	Location string
	// SearchResults, when non-empty, replace the focus context.
	SearchResults []conversation.ResourceResult
	// MatchedResult and FocusResultTitle are merged into the live focus context.
	MatchedResult    *conversation.ResourceResult
	FocusResultTitle string
	VoiceResponse    string
	SMSResponse      string
}

// Store is the per-session context store. It never calls a provider.
type Store struct {
	backend Backend
	locks   *KeyedMutex
	now     func() time.Time
}

type Option func(*Store)

// WithClock overrides time.Now, mostly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore wraps backend; a nil backend means a fresh MemoryBackend.
func NewStore(backend Backend, opts ...Option) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	s := &Store{
		backend: backend,
		locks:   NewKeyedMutex(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the session. A focus context older than
// conversation.FocusTimeout is cleared and the cleared state persisted.
func (s *Store) Get(ctx context.Context, key string) (*conversation.Session, bool) {
	key = normalizeKey(key)
	if key == "" {
		return nil, false
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	sess, ok := s.load(ctx, key)
	if !ok {
		return nil, false
	}
	if s.expireFocus(sess) {
		if err := s.backend.Set(ctx, key, sess); err != nil {
			log.Warnf("[session] persist expired focus for %s failed: %v", logging.MaskKey(key), err)
		}
	}
	return sess, true
}

// Update appends a turn and refreshes or merges the focus context.
func (s *Store) Update(ctx context.Context, key string, in UpdateInput) error {
	key = normalizeKey(key)
	if key == "" {
		return ErrInvalidInput
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	now := s.now().UTC()
	sess, ok := s.load(ctx, key)
	if !ok {
		sess = &conversation.Session{Key: key, CreatedAt: now}
	}
	s.expireFocus(sess)

	sess.History = append(sess.History, conversation.Turn{
		Intent:    in.Intent,
		Query:     in.Query,
		Response:  in.Response,
		CreatedAt: now,
	})
	if over := len(sess.History) - conversation.MaxHistory; over > 0 {
		sess.History = append([]conversation.Turn(nil), sess.History[over:]...)
	}

	sess.LastIntent = in.Intent
	sess.LastQuery = in.Query
	sess.LastResponse = in.Response
	sess.UpdatedAt = now

	switch {
	case len(in.SearchResults) > 0, in.Intent == conversation.IntentOffTopic:
		// Off-topic turns keep a result-less focus so the next turn can be redirected.
		sess.LastQueryContext = newFocus(in, now)
	case sess.LastQueryContext != nil && (in.MatchedResult != nil || in.FocusResultTitle != ""):
		mergeFocus(sess.LastQueryContext, in)
	}

	if err := s.backend.Set(ctx, key, sess); err != nil {
		return err
	}
	log.Debugf("[session] updated %s intent=%s history=%d focus=%t", logging.MaskKey(key), in.Intent, len(sess.History), sess.LastQueryContext != nil)
	return nil
}

// Clear removes the session. Blank keys are ignored.
func (s *Store) Clear(ctx context.Context, key string) {
	key = normalizeKey(key)
	if key == "" {
		return
	}
	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.backend.Delete(ctx, key); err != nil {
		log.Warnf("[session] clear %s failed: %v", logging.MaskKey(key), err)
	}
}

func (s *Store) load(ctx context.Context, key string) (*conversation.Session, bool) {
	sess, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		log.Warnf("[session] load %s failed, treating as absent: %v", logging.MaskKey(key), err)
		return nil, false
	}
	if !ok || sess == nil {
		return nil, false
	}
	return sess, true
}

func (s *Store) expireFocus(sess *conversation.Session) bool {
	if sess.LastQueryContext == nil || !sess.LastQueryContext.Expired(s.now()) {
		return false
	}
	sess.LastQueryContext = nil
	return true
}

func newFocus(in UpdateInput, now time.Time) *conversation.FocusContext {
	loc := location.ExtractPrefixed(in.Query)
	if loc == "" {
		loc = strings.TrimSpace(in.Location)
	}
	focus := &conversation.FocusContext{
		Intent:        in.Intent,
		Query:         in.Query,
		Location:      loc,
		Results:       conversation.RankResults(in.SearchResults, conversation.MaxFocusResults),
		CreatedAt:     now,
		VoiceResponse: in.VoiceResponse,
		SMSResponse:   in.SMSResponse,
	}
	mergeFocus(focus, in)
	return focus
}

// mergeFocus records which result the caller is focused on; Results are left untouched.
func mergeFocus(focus *conversation.FocusContext, in UpdateInput) {
	if in.MatchedResult != nil {
		matched := in.MatchedResult.Bounded()
		focus.MatchedResult = &matched
		focus.FocusResultTitle = matched.Title
	}
	if in.FocusResultTitle != "" {
		focus.FocusResultTitle = in.FocusResultTitle
	}
}

func normalizeKey(key string) string {
	return strings.TrimSpace(key)
}
