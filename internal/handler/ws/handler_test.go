package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/provider"
	"github.com/ann82/dv-assistant-sub003/internal/service/assistant"
	"github.com/ann82/dv-assistant-sub003/internal/service/response"
)

type reply struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type slowGenerator struct {
	delay time.Duration
}

func (g slowGenerator) Generate(ctx context.Context, _ []*schema.Message, _ provider.GenerateOptions) (string, error) {
	select {
	case <-time.After(g.delay):
		return "Here is what I found.", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func dial(t *testing.T, key string) *websocket.Conn {
	t.Helper()
	return dialEngine(t, key, assistant.New(assistant.Config{}))
}

func dialEngine(t *testing.T, key string, engine *assistant.Engine) *websocket.Conn {
	t.Helper()
	r := chi.NewRouter()
	New(engine).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + key
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	return c
}

func read(t *testing.T, c *websocket.Conn) reply {
	t.Helper()
	var msg reply
	require.NoError(t, c.ReadJSON(&msg))
	return msg
}

func TestWebSocketTurn(t *testing.T) {
	c := dial(t, "web-1")
	assert.Equal(t, "connected", read(t, c).Type)

	require.NoError(t, c.WriteJSON(map[string]any{"type": "config", "data": map[string]string{"channel": "sms"}}))
	cfg := read(t, c)
	assert.Equal(t, "config", cfg.Type)
	assert.Equal(t, "sms", cfg.Data["channel"])

	require.NoError(t, c.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "I need a lawyer"}}))
	got := read(t, c)
	require.Equal(t, "reply", got.Type)
	assert.Equal(t, "legal_services", got.Data["intent"])
	assert.Equal(t, got.Data["sms"], got.Data["text"])
}

func TestWebSocketRejectsUnknownTypeAndMismatch(t *testing.T) {
	c := dial(t, "web-2")
	read(t, c)

	require.NoError(t, c.WriteJSON(map[string]any{"type": "audio"}))
	assert.Equal(t, "error", read(t, c).Type)

	require.NoError(t, c.WriteJSON(map[string]any{"type": "text", "sessionKey": "other", "data": map[string]string{"text": "hi"}}))
	assert.Equal(t, "error", read(t, c).Type)
}

func TestWebSocketClosesAfterGoodbye(t *testing.T) {
	c := dial(t, "web-3")
	read(t, c)

	require.NoError(t, c.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "goodbye"}}))
	got := read(t, c)
	assert.Equal(t, true, got.Data["ended"])

	var next reply
	assert.Error(t, c.ReadJSON(&next))
}

func TestWebSocketTurnLongerThanReadTimeout(t *testing.T) {
	saved := readTimeout
	readTimeout = 200 * time.Millisecond
	t.Cleanup(func() { readTimeout = saved })

	engine := assistant.New(assistant.Config{
		Router: response.NewRouter(response.Config{Generator: slowGenerator{delay: 400 * time.Millisecond}}),
	})
	c := dialEngine(t, "web-4", engine)
	read(t, c)

	for _, text := range []string{"I'm worried about my kids", "Is it safe to leave him?"} {
		require.NoError(t, c.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": text}}))
		got := read(t, c)
		require.Equal(t, "reply", got.Type, text)
		assert.Equal(t, "ai", got.Data["source"], text)
	}
}

func TestConnectionStateApply(t *testing.T) {
	s := newConnectionState("k")
	s.apply(ConfigMessage{Channel: "voice", Language: "es-US"})
	assert.Equal(t, conversation.ChannelVoice, s.channel)
	assert.Equal(t, "es-US", s.language)

	s.apply(ConfigMessage{})
	assert.Equal(t, conversation.ChannelVoice, s.channel)
}
