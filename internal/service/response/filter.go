package response

import (
	"regexp"
	"strings"

	"github.com/ann82/dv-assistant-sub003/internal/analysis/contact"
	"github.com/ann82/dv-assistant-sub003/internal/analysis/location"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/provider"
)

// DefaultMinScore drops weak search hits.
const DefaultMinScore = 0.2

var (
	shelterPattern   = regexp.MustCompile(`(?i)\b(shelters?|safe (place|house|housing)|place to stay|somewhere (safe )?to (stay|go|sleep)|housing|refuge|transitional living)\b`)
	proximityPattern = regexp.MustCompile(`(?i)\b(near|nearby|nearest|closest|close to|around|local|locally|in my (area|city|town)|where (is|are|can)|there|zip)\b`)
	domainPattern    = regexp.MustCompile(`(?i)(shelter|domestic violence|abuse|survivor|safe house|safe housing|crisis|refuge|family violence|women's|housing|hotline)`)
)

// IsFactualLocationSearch reports whether the utterance asks for a shelter
// or housing resource somewhere specific. Such requests go to search first.
func IsFactualLocationSearch(utterance string) bool {
	if !shelterPattern.MatchString(utterance) {
		return false
	}
	return proximityPattern.MatchString(utterance) || location.ExtractPrefixed(utterance) != ""
}

// FilterResults keeps hits that score at least minScore, are about domestic
// violence support, and offer a way to reach the organisation. Contact details
// are extracted on the way; at most limit ranked results are returned.
func FilterResults(hits []provider.SearchResult, minScore float64, limit int) []conversation.ResourceResult {
	kept := make([]conversation.ResourceResult, 0, len(hits))
	for _, h := range hits {
		if h.Score < minScore {
			continue
		}
		if !domainPattern.MatchString(h.Title + " " + h.Content + " " + h.URL) {
			continue
		}
		if !contact.Reachable(h.Content, h.URL) {
			continue
		}
		kept = append(kept, conversation.ResourceResult{
			Title:        strings.TrimSpace(h.Title),
			URL:          strings.TrimSpace(h.URL),
			Content:      h.Content,
			Score:        h.Score,
			PhoneNumbers: contact.Phones(h.Content),
			Addresses:    contact.Addresses(h.Content),
		})
	}
	return conversation.RankResults(kept, limit)
}
