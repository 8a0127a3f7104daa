package location

import (
	"regexp"
	"strings"
)

var (
	prefixPattern = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:in|near|around|at)\s+`)
	phrasePattern = regexp.MustCompile(`(?i)^[a-z0-9][a-z0-9 .,'\-]*`)
)

// Phrases that follow "in/near/at" without naming a place.
var notPlaces = map[string]struct{}{
	"danger": {}, "trouble": {}, "home": {}, "me": {}, "here": {}, "there": {}, "all": {},
	"least": {}, "night": {}, "risk": {}, "time": {}, "first": {}, "last": {}, "once": {},
	"the moment": {}, "my house": {}, "my home": {}, "my area": {}, "this area": {},
	"my place": {}, "work": {}, "school": {}, "a shelter": {}, "a safe place": {},
	"the end": {}, "some point": {}, "least one": {}, "you": {}, "it": {}, "that": {},
	"this": {}, "them": {}, "him": {}, "her": {}, "a hurry": {}, "fear": {}, "pain": {},
}

// Words that terminate a location phrase.
var phraseStops = map[string]struct{}{
	"and": {}, "or": {}, "for": {}, "with": {}, "that": {}, "which": {}, "who": {},
	"please": {}, "today": {}, "tonight": {}, "tomorrow": {}, "now": {}, "right": {},
	"because": {}, "but": {}, "so": {}, "if": {}, "where": {}, "to": {}, "asap": {},
	"in": {}, "near": {}, "around": {}, "at": {}, "i": {}, "im": {}, "i'm": {}, "my": {}, "is": {}, "are": {},
}

// ExtractPrefixed returns the first phrase introduced by in, near, around or at,
// or "" when none names a plausible place.
func ExtractPrefixed(text string) string {
	for _, loc := range prefixPattern.FindAllStringIndex(text, -1) {
		raw := phrasePattern.FindString(text[loc[1]:])
		if candidate := cleanPhrase(raw); candidate != "" {
			return candidate
		}
	}
	return ""
}

func cleanPhrase(raw string) string {
	words := strings.Fields(raw)
	if len(words) > 0 && strings.EqualFold(words[0], "the") {
		words = words[1:]
	}

	kept := make([]string, 0, len(words))
	for _, w := range words {
		bare := strings.ToLower(strings.Trim(w, ".,'"))
		if _, stop := phraseStops[bare]; stop {
			break
		}
		kept = append(kept, w)
		// "Austin, TX" keeps going; "Austin." ends the phrase.
		if strings.HasSuffix(w, ".") && len(bare) > 2 {
			break
		}
	}

	phrase := strings.Trim(strings.Join(kept, " "), " .,'-")
	if phrase == "" {
		return ""
	}
	if _, bad := notPlaces[strings.ToLower(phrase)]; bad {
		return ""
	}
	// Leading pronoun, article or state word means this was not a place ("in need of", "near my sister").
	first := strings.ToLower(strings.Fields(phrase)[0])
	if _, bad := notPlaces[first]; bad {
		return ""
	}
	if _, bad := notPlaceLeads[first]; bad {
		return ""
	}
	if strings.ContainsAny(first, "0123456789") && !zipPattern.MatchString(first) {
		return ""
	}
	return phrase
}

var notPlaceLeads = map[string]struct{}{
	"a": {}, "an": {}, "my": {}, "your": {}, "his": {}, "their": {}, "our": {}, "need": {},
	"crisis": {}, "touch": {}, "contact": {}, "some": {}, "any": {}, "what": {}, "how": {},
	"case": {}, "order": {}, "line": {}, "bed": {}, "front": {}, "shock": {}, "tears": {},
	"every": {}, "one": {}, "two": {}, "most": {}, "fact": {}, "general": {},
}

// Mentions reports whether text still refers to loc, ignoring case.
func Mentions(text, loc string) bool {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(loc))
}
