package intent

import (
	"context"
	"fmt"
	"strings"

	rules "github.com/ann82/dv-assistant-sub003/internal/analysis/intent"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/provider"
)

// Source names the tier that produced a Result.
type Source string

const (
	SourceProvider Source = "provider"
	SourceFallback Source = "fallback"
	SourceCache    Source = "cache"
)

// Classifier maps an utterance to an intent. Both tiers implement it so
// callers and tests can force either one.
type Classifier interface {
	Classify(ctx context.Context, utterance string) (conversation.Intent, error)
}

// RuleClassifier is the deterministic keyword tier. It never fails.
type RuleClassifier struct{}

func (RuleClassifier) Classify(_ context.Context, utterance string) (conversation.Intent, error) {
	return rules.Classify(utterance).Intent, nil
}

// ProviderClassifier asks a model to pick one of the fixed intent labels.
type ProviderClassifier struct {
	model provider.Classifier
}

func NewProviderClassifier(model provider.Classifier) *ProviderClassifier {
	return &ProviderClassifier{model: model}
}

func (p *ProviderClassifier) Classify(ctx context.Context, utterance string) (conversation.Intent, error) {
	if p == nil || p.model == nil {
		return "", fmt.Errorf("intent provider not configured")
	}

	label, err := p.model.Classify(ctx, buildPrompt(utterance), conversation.IntentLabels())
	if err != nil {
		return "", err
	}
	parsed, ok := conversation.ParseIntent(label)
	if !ok {
		return "", fmt.Errorf("%w: %q", provider.ErrInvalidLabel, label)
	}
	return parsed, nil
}

func buildPrompt(utterance string) string {
	var b strings.Builder
	b.WriteString("Classify the caller's request to a domestic violence support line.\n")
	b.WriteString("find_shelter: looking for a shelter, safe housing or a place to stay.\n")
	b.WriteString("legal_services: protective orders, custody, lawyers, court or immigration help.\n")
	b.WriteString("counseling_services: therapy, support groups or someone to talk to.\n")
	b.WriteString("emergency_help: immediate danger or an urgent safety threat.\n")
	b.WriteString("general_information: questions about abuse, safety planning or how the service works.\n")
	b.WriteString("other_resources: food, transportation, money, jobs, childcare or medical needs.\n")
	b.WriteString("end_conversation: the caller is saying goodbye or wants to stop.\n")
	b.WriteString("off_topic: anything unrelated to safety or support.\n\n")
	b.WriteString("Caller: ")
	b.WriteString(strings.TrimSpace(utterance))
	return b.String()
}
