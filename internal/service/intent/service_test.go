package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/provider"
)

type stubClassifier struct {
	label string
	err   error
	panic bool
	calls int
}

func (s *stubClassifier) Classify(ctx context.Context, prompt string, labels []string) (string, error) {
	s.calls++
	if s.panic {
		panic("provider exploded")
	}
	return s.label, s.err
}

func TestClassifyUsesProvider(t *testing.T) {
	stub := &stubClassifier{label: "legal_services"}
	svc := NewService(Config{Primary: NewProviderClassifier(stub)})

	got := svc.Classify(context.Background(), "I need help with custody")
	assert.Equal(t, conversation.IntentLegal, got.Intent)
	assert.Equal(t, SourceProvider, got.Source)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
}

func TestClassifyNeverFailsWhenProviderErrors(t *testing.T) {
	utterances := []string{"", "hi", "I need a shelter", "he has a knife", "tell me a joke", "bye", "??"}
	for _, tc := range []*stubClassifier{
		{err: errors.New("timeout")},
		{label: "weather"},
		{panic: true},
	} {
		svc := NewService(Config{Primary: NewProviderClassifier(tc)})
		for _, u := range utterances {
			var got Result
			require.NotPanics(t, func() { got = svc.Classify(context.Background(), u) })
			assert.True(t, got.Intent.Valid(), "utterance %q", u)
			assert.Equal(t, SourceFallback, got.Source)
		}
	}
}

func TestClassifyFallbackMatchesRules(t *testing.T) {
	svc := NewService(Config{Primary: NewProviderClassifier(&stubClassifier{err: provider.ErrInvalidLabel})})
	assert.Equal(t, conversation.IntentShelter, svc.ClassifyIntent(context.Background(), "I need a shelter near Austin"))
	assert.Equal(t, conversation.IntentEmergency, svc.ClassifyIntent(context.Background(), "he is hurting me right now"))
}

func TestClassifyCachesProviderAnswers(t *testing.T) {
	stub := &stubClassifier{label: "find_shelter"}
	svc := NewService(Config{Primary: NewProviderClassifier(stub)})

	first := svc.Classify(context.Background(), "Need a  SHELTER")
	second := svc.Classify(context.Background(), "need a shelter")
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, first.Intent, second.Intent)
	assert.Equal(t, SourceCache, second.Source)
}

func TestClassifyDoesNotCacheOutageFallback(t *testing.T) {
	stub := &stubClassifier{err: errors.New("down")}
	svc := NewService(Config{Primary: NewProviderClassifier(stub)})

	svc.Classify(context.Background(), "need a shelter")
	stub.err = nil
	stub.label = "find_shelter"
	got := svc.Classify(context.Background(), "need a shelter")
	assert.Equal(t, SourceProvider, got.Source)
	assert.Equal(t, 2, stub.calls)
}

func TestRuleClassifierOnly(t *testing.T) {
	svc := NewService(Config{})
	got := svc.Classify(context.Background(), "where can I find a lawyer")
	assert.Equal(t, conversation.IntentLegal, got.Intent)
	assert.Equal(t, SourceFallback, got.Source)
}

func TestProviderClassifierUnconfigured(t *testing.T) {
	var p *ProviderClassifier
	_, err := p.Classify(context.Background(), "x")
	assert.Error(t, err)
}
