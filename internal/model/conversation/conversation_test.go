package conversation

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntent(t *testing.T) {
	cases := map[string]Intent{
		"find_shelter":        IntentShelter,
		" Legal-Services ":    IntentLegal,
		"\"emergency help\"":  IntentEmergency,
		"OFF_TOPIC.":          IntentOffTopic,
		"counseling_services": IntentCounseling,
	}
	for raw, want := range cases {
		got, ok := ParseIntent(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseIntent("weather_report")
	assert.False(t, ok)
	assert.Len(t, IntentLabels(), len(Intents))
}

func TestParseChannelDefaultsToWeb(t *testing.T) {
	assert.Equal(t, ChannelVoice, ParseChannel("VOICE"))
	assert.Equal(t, ChannelSMS, ParseChannel(" sms"))
	assert.Equal(t, ChannelWeb, ParseChannel(""))
	assert.Equal(t, ChannelWeb, ParseChannel("fax"))
}

func TestRankResults(t *testing.T) {
	results := []ResourceResult{
		{Title: "a", Score: 0.5},
		{Title: "b", Score: 1.4},
		{Title: "c", Score: 0.5},
		{Title: "d", Score: -1},
		{Title: "e", Score: 0.9, Content: strings.Repeat("word ", 100)},
	}
	ranked := RankResults(results, MaxFocusResults)

	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"b", "e", "a"}, []string{ranked[0].Title, ranked[1].Title, ranked[2].Title})
	assert.Equal(t, 1.0, ranked[0].Score)
	assert.LessOrEqual(t, len(ranked[1].Content), MaxContentLength)
	assert.True(t, strings.HasSuffix(ranked[1].Content, "..."))
	assert.Nil(t, RankResults(nil, 3))
}

func TestTruncateContentKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("é", 150)
	out := TruncateContent(s, 100)
	assert.LessOrEqual(t, len(out), 100)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "short", TruncateContent("  short ", 100))
}

func TestFocusExpiry(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	focus := &FocusContext{CreatedAt: created}

	assert.False(t, focus.Expired(created.Add(FocusTimeout)))
	assert.True(t, focus.Expired(created.Add(FocusTimeout+time.Second)))

	var missing *FocusContext
	assert.True(t, missing.Expired(created))
}

func TestSessionCloneIsDeep(t *testing.T) {
	matched := ResourceResult{Title: "Hope", PhoneNumbers: []string{"512-555-0100"}}
	sess := &Session{
		History: []Turn{{Query: "q"}},
		LastQueryContext: &FocusContext{
			Results:       []ResourceResult{{Title: "Hope", PhoneNumbers: []string{"512-555-0100"}}},
			MatchedResult: &matched,
		},
	}
	clone := sess.Clone()
	clone.History[0].Query = "changed"
	clone.LastQueryContext.Results[0].PhoneNumbers[0] = "changed"
	clone.LastQueryContext.MatchedResult.Title = "changed"

	assert.Equal(t, "q", sess.History[0].Query)
	assert.Equal(t, "512-555-0100", sess.LastQueryContext.Results[0].PhoneNumbers[0])
	assert.Equal(t, "Hope", sess.LastQueryContext.MatchedResult.Title)
	assert.Nil(t, (*Session)(nil).Clone())
}
