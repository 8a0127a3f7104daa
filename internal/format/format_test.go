package format

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
)

func sample() []conversation.ResourceResult {
	return []conversation.ResourceResult{
		{Title: "SAFE Alliance | Austin", URL: "https://www.safeaustin.org", Content: "24/7 hotline 512-267-7233"},
		{Title: "Hope House", URL: "https://hopehouse.org", PhoneNumbers: []string{"(512) 555-0101"}},
		{Title: "Casa <Marianella>", URL: "https://casamarianella.org/a/very/long/path/that/keeps/going/and/going"},
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	got := Truncate("the quick brown fox jumps over the lazy dog", 20)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 20)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestSMSListStaysWithinBudget(t *testing.T) {
	got := SMSList("Shelters near Austin:", sample())
	assert.LessOrEqual(t, utf8.RuneCountInString(got), SMSBudget)
	assert.Contains(t, got, "1. SAFE Alliance (512) 267-7233")
}

func TestFitSMSTruncatesOversizedFirstLine(t *testing.T) {
	got := FitSMS([]string{strings.Repeat("a", 300)}, SMSBudget)
	assert.Equal(t, SMSBudget, utf8.RuneCountInString(got))
}

func TestSegments(t *testing.T) {
	text := strings.Repeat("word ", 70)
	parts := Segments(text, SMSBudget)
	assert.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), SMSBudget)
	}
	assert.Equal(t, strings.Join(strings.Fields(text), " "), strings.Join(parts, " "))
	assert.Nil(t, Segments("  ", SMSBudget))
}

func TestVoiceList(t *testing.T) {
	got := VoiceList("I found 3 shelters.", sample())
	assert.Contains(t, got, "First, SAFE Alliance. Phone: (512) 267-7233.")
	assert.Contains(t, got, "Second, Hope House. Phone: (512) 555-0101.")
	assert.Contains(t, got, "Third, Casa <Marianella>.")
}

func TestWebListEscapes(t *testing.T) {
	got := WebList("Results", sample())
	assert.Contains(t, got, "Casa &lt;Marianella&gt;")
	assert.NotContains(t, got, "<Marianella>")
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "SAFE Alliance", CleanTitle("SAFE Alliance | Austin"))
	assert.Equal(t, "Hope House", CleanTitle("Hope House - Home"))
	assert.Equal(t, "Plain", CleanTitle(" Plain "))
}
