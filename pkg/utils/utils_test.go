package utils

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusBadRequest, "utterance is required")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"utterance is required"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var payload struct {
		Utterance string `json:"utterance"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"utterance":"hi"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &payload))
	assert.Equal(t, "hi", payload.Utterance)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, DecodeJSON(httptest.NewRecorder(), req, &payload))
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)
	SendSSEEvent(rec, rec, "chunk", map[string]string{"text": "hello"})

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	sc := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	require.True(t, sc.Scan())
	assert.Equal(t, "event: chunk", sc.Text())
	require.True(t, sc.Scan())
	assert.Equal(t, `data: {"text":"hello"}`, sc.Text())
}
