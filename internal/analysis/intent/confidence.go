package intent

import (
	"unicode/utf8"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
)

const (
	baseConfidence    = 0.5
	keywordBoost      = 0.3
	longTextBoost     = 0.1
	shortTextPenalty  = 0.2
	emergencyBoost    = 0.2
	invalidConfidence = 0.1
)

// Confidence scores a classification for observability. Routing never reads it.
func Confidence(utterance string, intent conversation.Intent) float64 {
	if !intent.Valid() {
		return invalidConfidence
	}

	score := baseConfidence
	if HasKeyword(utterance, intent) {
		score += keywordBoost
	}

	length := utf8.RuneCountInString(utterance)
	switch {
	case length > 20:
		score += longTextBoost
	case length < 5:
		score -= shortTextPenalty
	}

	if intent == conversation.IntentEmergency {
		score += emergencyBoost
	}

	return clamp(score)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
