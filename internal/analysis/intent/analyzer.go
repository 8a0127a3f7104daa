package intent

import (
	"regexp"
	"strings"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
)

// Decision is the outcome of the keyword rules.
type Decision struct {
	Intent     conversation.Intent
	Confidence float64
	Keyword    string
}

type rule struct {
	intent   conversation.Intent
	keywords []string
	pattern  *regexp.Regexp
}

// Rules are evaluated top to bottom; the first hit wins. Emergency and legal
// sit above shelter so "he has a gun, where can I stay" routes to emergency.
var rules = []*rule{
	newRule(conversation.IntentEmergency,
		"911", "in danger", "danger", "dangerous", "unsafe", "not safe", "kill me", "going to kill",
		"hurting me", "hurt me", "beating me", "attack*", "threaten*",
		"weapon", "gun", "knife", "knives", "bleeding", "right now", "immediately",
		"urgent", "help me now", "it's an emergency", "this is an emergency", "emergency help",
		"breaking in", "outside my door",
	),
	newRule(conversation.IntentLegal,
		"lawyer", "attorney", "legal", "protective order", "protection order", "order of protection",
		"restraining order", "custody", "divorce", "court", "judge", "immigration", "visa",
		"my rights", "sue", "police report", "file charges", "press charges",
	),
	newRule(conversation.IntentShelter,
		"shelter", "safe place", "place to stay", "somewhere to stay", "where can i stay",
		"safe house", "safehouse", "housing", "bed tonight", "a bed", "refuge", "sleep tonight",
		"run away", "leave my home", "leave home",
	),
	newRule(conversation.IntentCounseling,
		"counsel*", "therap*", "support group", "talk to someone", "someone to talk",
		"mental health", "trauma*", "psycholog*", "emotional support", "depressed", "anxiety",
		"ptsd", "cope", "coping",
	),
	newRule(conversation.IntentEndConversation,
		"goodbye", "bye", "that's all", "that is all", "i'm done", "im done", "hang up",
		"end call", "end the call", "no more questions", "nothing else", "thanks that's it",
		"stop", "quit",
	),
	newRule(conversation.IntentOffTopic,
		"weather", "joke", "sports", "football", "basketball", "baseball", "recipe", "movie",
		"song", "music", "video game", "celebrity", "stock price", "horoscope", "pizza",
		"homework", "what time is it", "tell me a story",
	),
	newRule(conversation.IntentOtherResources,
		"food", "clothing", "clothes", "transportation", "ride", "job", "employment", "childcare",
		"child care", "financial", "money", "rent", "pet", "medical", "doctor", "hospital",
		"benefits", "food bank", "hotline", "resources",
	),
}

// newRule compiles the keyword list. A keyword ending in "*" is a stem and
// matches any continuation ("counsel*" hits "counseling"); every other keyword
// must end on a word boundary, allowing only a plural "s" or "es".
func newRule(intent conversation.Intent, keywords ...string) *rule {
	alts := make([]string, 0, len(keywords))
	names := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if stem, ok := strings.CutSuffix(kw, "*"); ok {
			alts = append(alts, regexp.QuoteMeta(stem)+`[a-z]*`)
			names = append(names, stem)
			continue
		}
		alts = append(alts, regexp.QuoteMeta(kw)+`(?:e?s)?`)
		names = append(names, kw)
	}
	pattern := regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(` + strings.Join(alts, "|") + `)(?:$|[^a-z0-9])`)
	return &rule{intent: intent, keywords: names, pattern: pattern}
}

// Classify maps an utterance onto an intent using the ordered keyword rules.
// Unmatched input falls through to general information.
func Classify(utterance string) Decision {
	normalized := normalize(utterance)
	if normalized == "" {
		return Decision{Intent: conversation.IntentGeneralInformation, Confidence: Confidence(utterance, conversation.IntentGeneralInformation)}
	}

	for _, r := range rules {
		if match := r.pattern.FindStringSubmatch(normalized); match != nil {
			return Decision{
				Intent:     r.intent,
				Confidence: Confidence(utterance, r.intent),
				Keyword:    match[1],
			}
		}
	}

	return Decision{Intent: conversation.IntentGeneralInformation, Confidence: Confidence(utterance, conversation.IntentGeneralInformation)}
}

// HasKeyword reports whether the utterance contains one of the intent's keywords.
func HasKeyword(utterance string, intent conversation.Intent) bool {
	normalized := normalize(utterance)
	for _, r := range rules {
		if r.intent == intent {
			return r.pattern.MatchString(normalized)
		}
	}
	return false
}

// Keywords returns the keyword list for an intent, or nil for general information.
func Keywords(intent conversation.Intent) []string {
	for _, r := range rules {
		if r.intent == intent {
			out := make([]string, len(r.keywords))
			copy(out, r.keywords)
			return out
		}
	}
	return nil
}

func normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.ReplaceAll(text, "’", "'")
	return strings.Join(strings.Fields(text), " ")
}
