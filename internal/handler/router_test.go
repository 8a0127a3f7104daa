package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ann82/dv-assistant-sub003/internal/observability"
	"github.com/ann82/dv-assistant-sub003/internal/service/assistant"
)

func TestRouterOperationalEndpoints(t *testing.T) {
	observability.SetMetricsEnabled(true)
	defer observability.SetMetricsEnabled(false)
	r := NewRouter(assistant.New(assistant.Config{}), Options{MetricsEnabled: true})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/intent", strings.NewReader(`{"utterance":"tell me a joke"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "off_topic")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dvassistant_intent_classifications_total")
}

func TestRouterWithoutMetrics(t *testing.T) {
	r := NewRouter(assistant.New(assistant.Config{}), Options{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
