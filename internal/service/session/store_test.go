package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func shelters() []conversation.ResourceResult {
	return []conversation.ResourceResult{
		{Title: "Hope House", URL: "https://hopehouse.org", Content: "Emergency shelter", Score: 0.7},
		{Title: "SAFE Alliance", URL: "https://safeaustin.org", Content: strings.Repeat("long content ", 40), Score: 0.9},
		{Title: "Casa Marianella", URL: "https://casamarianella.org", Content: "Shelter", Score: 0.6},
		{Title: "Low Score", URL: "https://low.org", Content: "x", Score: 0.1},
	}
}

func TestHistoryIsBoundedAndEvictsOldestFirst(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		require.NoError(t, store.Update(ctx, "+15125550100", UpdateInput{
			Intent: conversation.IntentGeneralInformation,
			Query:  fmt.Sprintf("question %d", i),
		}))
		sess, ok := store.Get(ctx, "+15125550100")
		require.True(t, ok)
		assert.LessOrEqual(t, len(sess.History), conversation.MaxHistory)
	}

	sess, _ := store.Get(ctx, "+15125550100")
	require.Len(t, sess.History, 5)
	assert.Equal(t, "question 7", sess.History[0].Query)
	assert.Equal(t, "question 11", sess.History[4].Query)
	assert.Equal(t, "question 11", sess.LastQuery)
}

func TestUpdateBuildsBoundedFocusContext(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, "k", UpdateInput{
		Intent:        conversation.IntentShelter,
		Query:         "I need a shelter near Austin",
		Response:      "Here are shelters",
		SearchResults: shelters(),
		VoiceResponse: "voice text",
		SMSResponse:   "sms text",
	}))

	sess, ok := store.Get(ctx, "k")
	require.True(t, ok)
	focus := sess.LastQueryContext
	require.NotNil(t, focus)
	assert.Equal(t, "Austin", focus.Location)
	assert.Equal(t, conversation.IntentShelter, focus.Intent)
	require.Len(t, focus.Results, 3)
	assert.Equal(t, "SAFE Alliance", focus.Results[0].Title)
	assert.LessOrEqual(t, len(focus.Results[0].Content), conversation.MaxContentLength)
	assert.Equal(t, "sms text", focus.SMSResponse)
}

func TestUpdateMergesMatchedResultWithoutTouchingResults(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, "k", UpdateInput{Intent: conversation.IntentShelter, Query: "shelter in Austin", SearchResults: shelters()}))

	before, _ := store.Get(ctx, "k")
	matched := before.LastQueryContext.Results[1]
	require.NoError(t, store.Update(ctx, "k", UpdateInput{Intent: conversation.IntentShelter, Query: "tell me about the second one", MatchedResult: &matched}))

	after, _ := store.Get(ctx, "k")
	require.NotNil(t, after.LastQueryContext.MatchedResult)
	assert.Equal(t, matched.Title, after.LastQueryContext.FocusResultTitle)
	assert.Equal(t, before.LastQueryContext.Results, after.LastQueryContext.Results)
	assert.Equal(t, before.LastQueryContext.CreatedAt, after.LastQueryContext.CreatedAt)
}

func TestUpdateRemembersLocationWhenQueryNamesNone(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, "k", UpdateInput{
		Intent:        conversation.IntentShelter,
		Query:         "find a shelter nearby",
		Location:      "Austin",
		SearchResults: shelters(),
	}))
	sess, _ := store.Get(ctx, "k")
	assert.Equal(t, "Austin", sess.LastQueryContext.Location)

	require.NoError(t, store.Update(ctx, "k", UpdateInput{
		Intent:        conversation.IntentShelter,
		Query:         "what about shelters in Dallas",
		Location:      "Austin",
		SearchResults: shelters(),
	}))
	sess, _ = store.Get(ctx, "k")
	assert.Equal(t, "Dallas", sess.LastQueryContext.Location)
}

func TestOffTopicTurnKeepsResultlessFocus(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, "k", UpdateInput{Intent: conversation.IntentOffTopic, Query: "tell me a joke"}))

	sess, _ := store.Get(ctx, "k")
	require.NotNil(t, sess.LastQueryContext)
	assert.Equal(t, conversation.IntentOffTopic, sess.LastQueryContext.Intent)
	assert.Empty(t, sess.LastQueryContext.Results)
}

func TestFocusExpiresOnReadAndIsRebuiltFresh(t *testing.T) {
	clock := newFakeClock()
	backend := NewMemoryBackend()
	store := NewStore(backend, WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, "k", UpdateInput{Intent: conversation.IntentShelter, Query: "shelter in Austin", SearchResults: shelters()}))

	clock.Advance(4 * time.Minute)
	sess, _ := store.Get(ctx, "k")
	require.NotNil(t, sess.LastQueryContext)

	clock.Advance(2 * time.Minute)
	sess, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Nil(t, sess.LastQueryContext)

	raw, _, _ := backend.Get(ctx, "k")
	assert.Nil(t, raw.LastQueryContext, "cleared focus is persisted")

	// A matched result cannot resurrect the stale focus.
	matched := shelters()[0]
	require.NoError(t, store.Update(ctx, "k", UpdateInput{Query: "the first one", MatchedResult: &matched}))
	sess, _ = store.Get(ctx, "k")
	assert.Nil(t, sess.LastQueryContext)

	require.NoError(t, store.Update(ctx, "k", UpdateInput{Intent: conversation.IntentLegal, Query: "lawyer in Dallas", SearchResults: shelters()[:1]}))
	sess, _ = store.Get(ctx, "k")
	require.NotNil(t, sess.LastQueryContext)
	assert.Equal(t, "Dallas", sess.LastQueryContext.Location)
	assert.Equal(t, clock.Now(), sess.LastQueryContext.CreatedAt)
	assert.Nil(t, sess.LastQueryContext.MatchedResult)
}

func TestUpdateExpiresStaleFocusWithoutPriorRead(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(nil, WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, "k", UpdateInput{Query: "shelter in Austin", SearchResults: shelters()}))
	clock.Advance(6 * time.Minute)
	require.NoError(t, store.Update(ctx, "k", UpdateInput{Query: "thanks", FocusResultTitle: "Hope House"}))

	sess, _ := store.Get(ctx, "k")
	assert.Nil(t, sess.LastQueryContext)
}

func TestInvalidKeys(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	assert.True(t, errors.Is(store.Update(ctx, "  ", UpdateInput{}), ErrInvalidInput))
	_, ok := store.Get(ctx, "")
	assert.False(t, ok)
	store.Clear(ctx, "")
}

func TestClearRemovesSession(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, "k", UpdateInput{Query: "hi"}))

	store.Clear(ctx, "k")
	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestGetReturnsCopies(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, "k", UpdateInput{Query: "shelter in Austin", SearchResults: shelters()}))

	sess, _ := store.Get(ctx, "k")
	sess.History[0].Query = "mutated"
	sess.LastQueryContext.Results[0].Title = "mutated"

	again, _ := store.Get(ctx, "k")
	assert.Equal(t, "shelter in Austin", again.History[0].Query)
	assert.NotEqual(t, "mutated", again.LastQueryContext.Results[0].Title)
}

type failingBackend struct{ *MemoryBackend }

func (failingBackend) Get(context.Context, string) (*conversation.Session, bool, error) {
	return nil, false, errors.New("backend down")
}

func TestBackendErrorsReadAsAbsence(t *testing.T) {
	store := NewStore(failingBackend{NewMemoryBackend()})
	_, ok := store.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestConcurrentUpdatesKeepHistoryBounded(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Update(ctx, "shared", UpdateInput{Query: fmt.Sprintf("q%d", i)})
		}(i)
	}
	wg.Wait()

	sess, ok := store.Get(ctx, "shared")
	require.True(t, ok)
	assert.Len(t, sess.History, conversation.MaxHistory)
	assert.Equal(t, 0, store.locks.Len())
}
