package response

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// HotlineMessage is the safe reply used whenever generation is unavailable.
	HotlineMessage = "I'm having trouble getting that information right now. If you need help, please call the National Domestic Violence Hotline at 1-800-799-7233. If you are in danger, call 911."

	hotlineSMS = "DV Hotline: 1-800-799-7233 (24/7). Text START to 88788. In danger? Call 911."
)

// NoSheltersMessage is returned when a search yields nothing usable.
func NoSheltersMessage(place string) string {
	if place == "" {
		return "I couldn't find any shelters matching your request. The National Domestic Violence Hotline at 1-800-799-7233 can help you find a safe place."
	}
	return fmt.Sprintf("I couldn't find any shelters near %s. The National Domestic Violence Hotline at 1-800-799-7233 can help you find a safe place.", place)
}

var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|greetings|thank you for reaching out|thanks for reaching out|i'm (so )?sorry (to hear|you're going through) [^.!]*|i understand[^.!]*|of course|certainly|absolutely|sure)\b[,.!]*\s*`)

// StripGreeting removes leading pleasantries from generated text.
func StripGreeting(text string) string {
	text = strings.TrimSpace(text)
	for i := 0; i < 3; i++ {
		stripped := greetingPattern.ReplaceAllString(text, "")
		if stripped == text || stripped == "" {
			break
		}
		text = strings.TrimSpace(stripped)
	}
	first, size := utf8.DecodeRuneInString(text)
	if first == utf8.RuneError {
		return text
	}
	return string(unicode.ToUpper(first)) + text[size:]
}

var markdownPattern = regexp.MustCompile(`[*_#` + "`" + `]+`)

// plainText strips markdown emphasis so voice and SMS read cleanly.
func plainText(text string) string {
	return strings.TrimSpace(markdownPattern.ReplaceAllString(text, ""))
}
