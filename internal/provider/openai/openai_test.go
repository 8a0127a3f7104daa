package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/ann82/dv-assistant-sub003/internal/provider"
)

func completionServer(t *testing.T, content string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			*seen = string(body)
		}
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		reply := `{"id":"cmpl-1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":""}}]}`
		out, _ := sjson.Set(reply, "choices.0.message.content", content)
		_, _ = w.Write([]byte(out))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClassifySendsEnumSchema(t *testing.T) {
	var seen string
	srv := completionServer(t, `{"label":"find_shelter"}`, &seen)
	client, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	label, err := client.Classify(context.Background(), "need a safe place", []string{"find_shelter", "off_topic"})
	require.NoError(t, err)
	assert.Equal(t, "find_shelter", label)

	assert.Equal(t, "json_schema", gjson.Get(seen, "response_format.type").String())
	enum := gjson.Get(seen, "response_format.json_schema.schema.properties.label.enum").Array()
	require.Len(t, enum, 2)
	assert.Equal(t, "off_topic", enum[1].String())
	assert.True(t, gjson.Get(seen, "response_format.json_schema.strict").Bool())
}

func TestClassifyRejectsOutOfSetAnswer(t *testing.T) {
	srv := completionServer(t, `{"label":"weather"}`, nil)
	client, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), "sunny?", []string{"find_shelter"})
	assert.True(t, errors.Is(err, provider.ErrInvalidLabel))
}

func TestGenerateMapsRolesAndOptions(t *testing.T) {
	var seen string
	srv := completionServer(t, "Here is some help.", &seen)
	client, err := New(Config{APIKey: "sk-test", Model: "gpt-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("be brief"),
		schema.UserMessage("hello"),
	}, provider.GenerateOptions{MaxTokens: 120, Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "Here is some help.", out)

	assert.Equal(t, "gpt-test", gjson.Get(seen, "model").String())
	assert.Equal(t, "system", gjson.Get(seen, "messages.0.role").String())
	assert.Equal(t, "user", gjson.Get(seen, "messages.1.role").String())
	assert.Equal(t, int64(120), gjson.Get(seen, "max_completion_tokens").Int())
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
