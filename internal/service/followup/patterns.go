package followup

import (
	"regexp"
	"strconv"
	"strings"
)

type category int

const (
	categoryNone category = iota
	categorySend
	categoryLocation
	categoryContact
)

var (
	// Ordinal words need "the" before or a noun after, so "last night" is not a reference.
	ordinalPattern       = regexp.MustCompile(`(?i)\bthe\s+(first|second|third|fourth|fifth|1st|2nd|3rd|4th|5th|last)\b|\b(first|second|third|fourth|fifth|1st|2nd|3rd|4th|5th|last)\s+(?:one|shelter|place|result|option)\b|\bnumber\s+([1-5])\b|#\s?([1-5])\b`)
	demonstrativePattern = regexp.MustCompile(`(?i)\b(that one|this one|that place|this place|that shelter|this shelter|the one|that|this|those|these|it|them|they)\b`)
	pluralRefPattern     = regexp.MustCompile(`(?i)\b(those|these|them|all of them)\b`)
	detailPattern        = regexp.MustCompile(`(?i)\b(more|details?|tell me|explain|learn)\b`)
	sendPattern          = regexp.MustCompile(`(?i)\b(send|text|email|e-mail|sms|message me)\b`)
	locationPattern      = regexp.MustCompile(`(?i)\b(where|address|located|location|directions|get there)\b`)
	contactPattern       = regexp.MustCompile(`(?i)\b(phone|number|call|contact|reach|hotline)\b`)
	phoneWordPattern     = regexp.MustCompile(`(?i)\b(phone|call|contact|reach|hotline)\b`)
	capitalizedPattern   = regexp.MustCompile(`\b[A-Z][A-Za-z'&.]*(?:\s+(?:of\s+|the\s+|&\s+)?[A-Z][A-Za-z'&.]*)*`)
)

var ordinalWords = map[string]int{
	"first": 1, "1st": 1,
	"second": 2, "2nd": 2,
	"third": 3, "3rd": 3,
	"fourth": 4, "4th": 4,
	"fifth": 5, "5th": 5,
}

// Sentence-leading words that are capitalised without naming anything.
var capitalStopwords = map[string]struct{}{
	"I": {}, "I'm": {}, "Tell": {}, "What": {}, "Where": {}, "Which": {}, "How": {}, "Can": {},
	"Could": {}, "Would": {}, "Please": {}, "The": {}, "Send": {}, "Text": {}, "Is": {},
	"Does": {}, "Do": {}, "And": {}, "Ok": {}, "OK": {}, "Okay": {}, "Yes": {}, "No": {},
	"Give": {}, "Email": {}, "Call": {}, "More": {}, "About": {}, "That": {}, "This": {},
	"Thanks": {}, "Thank": {}, "Hi": {}, "Hello": {}, "So": {}, "Who": {}, "When": {},
}

// matchesFollowUpPattern is the cheap gate run before any provider call.
func matchesFollowUpPattern(utterance string) bool {
	return ordinalPattern.MatchString(utterance) ||
		demonstrativePattern.MatchString(utterance) ||
		detailPattern.MatchString(utterance) ||
		sendPattern.MatchString(utterance) ||
		locationPattern.MatchString(utterance) ||
		contactPattern.MatchString(utterance)
}

// categorize picks the answer shape. Send wins over location, which wins over contact.
func categorize(utterance string) category {
	switch {
	case sendPattern.MatchString(utterance):
		return categorySend
	case locationPattern.MatchString(utterance):
		return categoryLocation
	case contactPattern.MatchString(utterance) && !ordinalNumberOnly(utterance):
		return categoryContact
	default:
		return categoryNone
	}
}

// ordinalNumberOnly is true for "number 2" style references, where "number"
// is an ordinal and not a request for a phone number.
func ordinalNumberOnly(utterance string) bool {
	m := ordinalPattern.FindStringSubmatch(utterance)
	if m == nil || m[3] == "" {
		return false
	}
	return strings.Count(strings.ToLower(utterance), "number") == 1 && !phoneWordPattern.MatchString(utterance)
}

// ordinalIndex returns the 1-based position the utterance refers to; -1 means "last".
func ordinalIndex(utterance string) (int, bool) {
	m := ordinalPattern.FindStringSubmatch(utterance)
	if m == nil {
		return 0, false
	}
	word := m[1]
	if word == "" {
		word = m[2]
	}
	switch {
	case word != "":
		word = strings.ToLower(word)
		if word == "last" {
			return -1, true
		}
		return ordinalWords[word], true
	case m[3] != "":
		n, _ := strconv.Atoi(m[3])
		return n, true
	case m[4] != "":
		n, _ := strconv.Atoi(m[4])
		return n, true
	}
	return 0, false
}

// capitalizedPhrase returns the longest capitalised run, minus leading stopwords.
func capitalizedPhrase(utterance string) string {
	best := ""
	for _, raw := range capitalizedPattern.FindAllString(utterance, -1) {
		words := strings.Fields(raw)
		for len(words) > 0 {
			if _, stop := capitalStopwords[strings.Trim(words[0], ".'")]; !stop {
				break
			}
			words = words[1:]
		}
		phrase := strings.Trim(strings.Join(words, " "), " .")
		if len(phrase) > len(best) {
			best = phrase
		}
	}
	if len(best) < 3 {
		return ""
	}
	return best
}
