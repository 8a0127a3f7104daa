package followup

import (
	"strings"
	"unicode"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
)

const (
	titleWeight   = 0.6
	contentWeight = 0.3
	urlWeight     = 0.1

	// MatchThreshold is the weighted score a fuzzy match must exceed.
	MatchThreshold = 0.3

	containmentScore = 0.9
	tokenScoreCap    = 0.8
	minTokenLength   = 3
)

// Similarity scores a against b in [0, 0.9]. Containment of one in the other
// scores 0.9; otherwise the share of common tokens, capped at 0.8.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if len(a) >= minTokenLength && len(b) >= minTokenLength && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return containmentScore
	}

	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			shared++
		}
	}
	larger := len(ta)
	if len(tb) > larger {
		larger = len(tb)
	}
	score := float64(shared) / float64(larger)
	if score > tokenScoreCap {
		score = tokenScoreCap
	}
	return score
}

func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(f) >= minTokenLength {
			out[f] = struct{}{}
		}
	}
	return out
}

// Score weighs a target against one result's title, content and URL.
func Score(target string, r conversation.ResourceResult) float64 {
	return titleWeight*Similarity(target, r.Title) +
		contentWeight*Similarity(target, r.Content) +
		urlWeight*Similarity(target, r.URL)
}

// BestMatch returns the highest scoring result above MatchThreshold.
// At or below threshold nothing is returned.
func BestMatch(target string, results []conversation.ResourceResult) (*conversation.ResourceResult, float64) {
	if strings.TrimSpace(target) == "" {
		return nil, 0
	}
	bestIdx, bestScore := -1, 0.0
	for i, r := range results {
		if s := Score(target, r); s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	if bestIdx < 0 || bestScore <= MatchThreshold {
		return nil, bestScore
	}
	matched := results[bestIdx].Clone()
	return &matched, bestScore
}
