package followup

import (
	"fmt"
	"strings"

	"github.com/ann82/dv-assistant-sub003/internal/format"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
)

// OffTopicRedirect is the fixed reply whenever the remembered turn was off topic.
const OffTopicRedirect = "I'm here to help with domestic violence support, such as finding shelters, legal help or counseling. What can I help you with today?"

func offTopicRedirect(focus *conversation.FocusContext) *Response {
	return &Response{
		Type:          TypeOffTopicRedirect,
		Intent:        focus.Intent,
		VoiceResponse: OffTopicRedirect,
		SMSResponse:   OffTopicRedirect,
		Results:       cloneResults(focus.Results),
	}
}

func synthesize(cat category, focus *conversation.FocusContext, matched *conversation.ResourceResult) *Response {
	resp := &Response{
		Intent:        focus.Intent,
		Results:       cloneResults(focus.Results),
		MatchedResult: matched,
	}

	subjects := focus.Results
	if matched != nil {
		subjects = []conversation.ResourceResult{*matched}
	}

	switch {
	case cat == categorySend:
		resp.Type = TypeSendDetails
		resp.SMSResponse = focus.SMSResponse
		if matched != nil || resp.SMSResponse == "" {
			resp.SMSResponse = format.SMSList("Details:", subjects)
		}
		resp.VoiceResponse = "I'll send those details to you by text message."
	case cat == categoryLocation:
		resp.Type = TypeLocationInfo
		resp.VoiceResponse, resp.SMSResponse = describeLocations(subjects)
	case cat == categoryContact:
		resp.Type = TypeContactInfo
		resp.VoiceResponse, resp.SMSResponse = describeContacts(subjects)
	case matched != nil:
		resp.Type = TypeSpecificResult
		resp.VoiceResponse, resp.SMSResponse = describeResult(*matched)
	default:
		resp.Type = TypeGeneralFollowUp
		intro := fmt.Sprintf("Here are the %d resources I found.", len(focus.Results))
		resp.VoiceResponse = format.VoiceList(intro, focus.Results) + " Which one would you like to know more about?"
		resp.SMSResponse = format.SMSList("Resources:", focus.Results)
	}
	return resp
}

func describeResult(r conversation.ResourceResult) (string, string) {
	title := format.CleanTitle(r.Title)
	var voice strings.Builder
	voice.WriteString(title)
	voice.WriteString(".")
	if r.Content != "" {
		voice.WriteString(" ")
		voice.WriteString(strings.TrimSuffix(r.Content, "."))
		voice.WriteString(".")
	}
	lines := []string{title}
	if phones := format.Phones(r); len(phones) > 0 {
		fmt.Fprintf(&voice, " You can reach them at %s.", phones[0])
		lines = append(lines, phones[0])
	}
	if addrs := format.Addresses(r); len(addrs) > 0 {
		lines = append(lines, addrs[0])
	}
	if r.URL != "" {
		lines = append(lines, r.URL)
	}
	return voice.String(), format.FitSMS(lines, format.SMSBudget)
}

func describeLocations(subjects []conversation.ResourceResult) (string, string) {
	var voice []string
	var lines []string
	for _, r := range subjects {
		title := format.CleanTitle(r.Title)
		if addrs := format.Addresses(r); len(addrs) > 0 {
			voice = append(voice, fmt.Sprintf("%s is at %s.", title, addrs[0]))
			lines = append(lines, fmt.Sprintf("%s: %s", title, addrs[0]))
			continue
		}
		// Shelter addresses are often withheld for safety.
		voice = append(voice, fmt.Sprintf("%s does not list a public address. Please call them for directions.", title))
		line := title
		if phones := format.Phones(r); len(phones) > 0 {
			line += ": call " + phones[0]
		} else if r.URL != "" {
			line += ": " + r.URL
		}
		lines = append(lines, line)
	}
	return strings.Join(voice, " "), format.FitSMS(lines, format.SMSBudget)
}

func describeContacts(subjects []conversation.ResourceResult) (string, string) {
	var voice []string
	var lines []string
	for _, r := range subjects {
		title := format.CleanTitle(r.Title)
		if phones := format.Phones(r); len(phones) > 0 {
			voice = append(voice, fmt.Sprintf("You can call %s at %s.", title, phones[0]))
			lines = append(lines, fmt.Sprintf("%s: %s", title, phones[0]))
			continue
		}
		voice = append(voice, fmt.Sprintf("I don't have a phone number for %s, but their website is listed in the text.", title))
		lines = append(lines, fmt.Sprintf("%s: %s", title, r.URL))
	}
	return strings.Join(voice, " "), format.FitSMS(lines, format.SMSBudget)
}

func cloneResults(in []conversation.ResourceResult) []conversation.ResourceResult {
	if len(in) == 0 {
		return nil
	}
	out := make([]conversation.ResourceResult, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
