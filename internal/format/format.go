// Package format renders plain text for the voice, SMS and web channels.
package format

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/ann82/dv-assistant-sub003/internal/analysis/contact"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
)

// SMSBudget is the character budget of one SMS segment.
const SMSBudget = 160

// Truncate cuts s to at most n runes, ending on a word when it can.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	head := string(runes[:n-3])
	if idx := strings.LastIndexByte(head, ' '); idx > len(head)/2 {
		head = head[:idx]
	}
	return strings.TrimRight(head, " ,.;:") + "..."
}

// FitSMS joins lines with newlines, dropping whole trailing lines that would
// push the text past budget. The first line is truncated rather than dropped.
func FitSMS(lines []string, budget int) string {
	var b strings.Builder
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sep := 0
		if b.Len() > 0 {
			sep = 1
		}
		if utf8.RuneCountInString(b.String())+sep+utf8.RuneCountInString(line) > budget {
			if b.Len() == 0 {
				return Truncate(line, budget)
			}
			break
		}
		if sep == 1 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

// Segments splits text into SMS-sized parts on word boundaries.
func Segments(text string, budget int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if budget <= 0 {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > budget {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			runes := []rune(word)
			parts = append(parts, string(runes[:budget]))
			word = string(runes[budget:])
		}
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(word) > budget {
			parts = append(parts, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// Phones returns the result's phone numbers, extracting them from the content when unset.
func Phones(r conversation.ResourceResult) []string {
	if len(r.PhoneNumbers) > 0 {
		return r.PhoneNumbers
	}
	return contact.Phones(r.Content)
}

// Addresses returns the result's addresses, extracting them from the content when unset.
func Addresses(r conversation.ResourceResult) []string {
	if len(r.Addresses) > 0 {
		return r.Addresses
	}
	return contact.Addresses(r.Content)
}

// VoiceList reads results as a numbered spoken list with phone numbers.
func VoiceList(intro string, results []conversation.ResourceResult) string {
	var b strings.Builder
	b.WriteString(intro)
	for i, r := range results {
		fmt.Fprintf(&b, " %s, %s.", ordinalWord(i+1), CleanTitle(r.Title))
		if phones := Phones(r); len(phones) > 0 {
			fmt.Fprintf(&b, " Phone: %s.", phones[0])
		}
	}
	return strings.TrimSpace(b.String())
}

// SMSList renders results as title/phone/url lines within the SMS budget.
func SMSList(intro string, results []conversation.ResourceResult) string {
	lines := []string{intro}
	for i, r := range results {
		line := fmt.Sprintf("%d. %s", i+1, CleanTitle(r.Title))
		if phones := Phones(r); len(phones) > 0 {
			line += " " + phones[0]
		}
		lines = append(lines, line)
		if r.URL != "" {
			lines = append(lines, r.URL)
		}
	}
	return FitSMS(lines, SMSBudget)
}

// WebList renders results as an escaped HTML block.
func WebList(intro string, results []conversation.ResourceResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s</p>\n<ul>\n", html.EscapeString(intro))
	for _, r := range results {
		b.WriteString("<li>")
		if r.URL != "" {
			fmt.Fprintf(&b, `<a href="%s">%s</a>`, html.EscapeString(r.URL), html.EscapeString(CleanTitle(r.Title)))
		} else {
			b.WriteString(html.EscapeString(CleanTitle(r.Title)))
		}
		if phones := Phones(r); len(phones) > 0 {
			fmt.Fprintf(&b, " &middot; %s", html.EscapeString(strings.Join(phones, ", ")))
		}
		if r.Content != "" {
			fmt.Fprintf(&b, "<br>%s", html.EscapeString(r.Content))
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>")
	return b.String()
}

// WebParagraph escapes plain text into a paragraph.
func WebParagraph(text string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(strings.TrimSpace(text)), "\n", "<br>") + "</p>"
}

// CleanTitle drops the site suffix search engines append ("Foo | Bar", "Foo - Bar").
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, sep := range []string{" | ", " - ", " – "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
		}
	}
	return title
}

func ordinalWord(n int) string {
	words := []string{"First", "Second", "Third", "Fourth", "Fifth"}
	if n >= 1 && n <= len(words) {
		return words[n-1]
	}
	return fmt.Sprintf("Number %d", n)
}
