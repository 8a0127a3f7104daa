package response

import (
	"fmt"
	"strings"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
)

// PromptTemplate holds the system instructions for one channel.
type PromptTemplate struct {
	SystemPrompt  string
	ResponseRules []string
	MaxTokens     int
}

// PromptManager selects channel-specific instructions for the generative path.
type PromptManager struct {
	templates map[conversation.Channel]*PromptTemplate
}

func NewPromptManager() *PromptManager {
	pm := &PromptManager{templates: make(map[conversation.Channel]*PromptTemplate)}
	pm.loadDefaultTemplates()
	return pm
}

// Template returns the template for channel, falling back to web.
func (pm *PromptManager) Template(channel conversation.Channel) *PromptTemplate {
	if t, ok := pm.templates[channel]; ok {
		return t
	}
	return pm.templates[conversation.ChannelWeb]
}

// BuildSystemPrompt combines the channel template, the caller's topic and the
// conversation summary.
func (pm *PromptManager) BuildSystemPrompt(channel conversation.Channel, intent conversation.Intent, summary, language string) string {
	t := pm.Template(channel)

	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\n")
	b.WriteString(t.SystemPrompt)
	b.WriteString("\n\nRules:\n- ")
	b.WriteString(strings.Join(t.ResponseRules, "\n- "))
	if hint, ok := intentHints[intent]; ok {
		fmt.Fprintf(&b, "\n\nThe caller is asking about %s.", hint)
	}
	if summary != "" {
		fmt.Fprintf(&b, "\n\nConversation so far: %s", summary)
	}
	if lang := strings.TrimSpace(language); lang != "" && !strings.HasPrefix(strings.ToLower(lang), "en") {
		fmt.Fprintf(&b, "\n\nRespond in the language with tag %s.", lang)
	}
	return b.String()
}

const basePrompt = "You are a calm, trauma-informed assistant for a domestic violence support line. " +
	"Be brief and practical. Never blame the caller. If the caller may be in danger, tell them to call 911. " +
	"The National Domestic Violence Hotline is 1-800-799-7233."

var intentHints = map[conversation.Intent]string{
	conversation.IntentShelter:            "finding a shelter or safe housing",
	conversation.IntentLegal:              "legal help such as protective orders or custody",
	conversation.IntentCounseling:         "counseling or emotional support",
	conversation.IntentEmergency:          "an emergency; prioritise immediate safety",
	conversation.IntentGeneralInformation: "general information about abuse and safety",
	conversation.IntentOtherResources:     "practical resources such as food, money or transport",
}

func (pm *PromptManager) loadDefaultTemplates() {
	pm.templates[conversation.ChannelVoice] = &PromptTemplate{
		SystemPrompt: "Your reply will be read aloud on a phone call.",
		ResponseRules: []string{
			"Use at most three short sentences",
			"Do not use lists, markdown, URLs or emojis",
			"Say phone numbers digit group by digit group",
			"End with a short question offering more help",
		},
		MaxTokens: 150,
	}
	pm.templates[conversation.ChannelSMS] = &PromptTemplate{
		SystemPrompt: "Your reply will be sent as a text message.",
		ResponseRules: []string{
			"Stay under 300 characters",
			"Plain text only, no markdown",
			"Skip greetings and sign-offs",
		},
		MaxTokens: 100,
	}
	pm.templates[conversation.ChannelWeb] = &PromptTemplate{
		SystemPrompt: "Your reply will be shown in a web chat window.",
		ResponseRules: []string{
			"Keep it under 150 words",
			"Short paragraphs are fine; avoid headings",
			"Mention a safety exit tip when discussing sensitive topics",
		},
		MaxTokens: 400,
	}
}
