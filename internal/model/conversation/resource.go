package conversation

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// ResourceResult is a size-bounded view of one search hit. Raw payloads are
// never retained: Content is cut to MaxContentLength.
type ResourceResult struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Content      string   `json:"content"`
	Score        float64  `json:"score"`
	PhoneNumbers []string `json:"phoneNumbers,omitempty"`
	Addresses    []string `json:"addresses,omitempty"`
}

// Clone returns a copy that shares no slices with r.
func (r ResourceResult) Clone() ResourceResult {
	r.PhoneNumbers = append([]string(nil), r.PhoneNumbers...)
	r.Addresses = append([]string(nil), r.Addresses...)
	return r
}

// Bounded clamps the score into [0,1] and truncates Content.
func (r ResourceResult) Bounded() ResourceResult {
	r = r.Clone()
	r.Content = TruncateContent(r.Content, MaxContentLength)
	if r.Score < 0 {
		r.Score = 0
	}
	if r.Score > 1 {
		r.Score = 1
	}
	return r
}

// RankResults orders by score descending (stable) and keeps at most limit bounded results.
func RankResults(results []ResourceResult, limit int) []ResourceResult {
	if len(results) == 0 {
		return nil
	}
	ranked := make([]ResourceResult, 0, len(results))
	for _, r := range results {
		ranked = append(ranked, r.Bounded())
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// TruncateContent cuts s to at most maxLen bytes on a rune boundary, preferring
// the last word break, and marks the cut with "...".
func TruncateContent(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return s[:maxLen]
	}
	cut := maxLen - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	head := s[:cut]
	if idx := strings.LastIndexByte(head, ' '); idx > cut/2 {
		head = head[:idx]
	}
	return strings.TrimRight(head, " ,.;:") + ellipsis
}
