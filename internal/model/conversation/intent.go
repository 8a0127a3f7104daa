package conversation

import "strings"

// Intent is the closed set of caller goals the assistant routes on.
type Intent string

const (
	IntentShelter            Intent = "find_shelter"
	IntentLegal              Intent = "legal_services"
	IntentCounseling         Intent = "counseling_services"
	IntentEmergency          Intent = "emergency_help"
	IntentGeneralInformation Intent = "general_information"
	IntentOtherResources     Intent = "other_resources"
	IntentEndConversation    Intent = "end_conversation"
	IntentOffTopic           Intent = "off_topic"
)

// Intents lists every valid intent in a stable order.
var Intents = []Intent{
	IntentShelter,
	IntentLegal,
	IntentCounseling,
	IntentEmergency,
	IntentGeneralInformation,
	IntentOtherResources,
	IntentEndConversation,
	IntentOffTopic,
}

// Valid reports whether the intent belongs to the fixed set.
func (i Intent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// ParseIntent normalises a provider label. Hyphens, spaces and case are tolerated.
func ParseIntent(raw string) (Intent, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.Trim(normalized, "\"'`.")
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	intent := Intent(normalized)
	if !intent.Valid() {
		return "", false
	}
	return intent, true
}

// IntentLabels returns the string form of Intents, used for constrained classification.
func IntentLabels() []string {
	labels := make([]string, 0, len(Intents))
	for _, intent := range Intents {
		labels = append(labels, string(intent))
	}
	return labels
}

// Channel identifies the surface a reply is rendered for.
type Channel string

const (
	ChannelVoice Channel = "voice"
	ChannelSMS   Channel = "sms"
	ChannelWeb   Channel = "web"
)

// ParseChannel falls back to web for unknown values.
func ParseChannel(raw string) Channel {
	switch Channel(strings.ToLower(strings.TrimSpace(raw))) {
	case ChannelVoice:
		return ChannelVoice
	case ChannelSMS:
		return ChannelSMS
	default:
		return ChannelWeb
	}
}
