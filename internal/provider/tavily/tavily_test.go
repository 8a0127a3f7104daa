package tavily

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ann82/dv-assistant-sub003/internal/provider"
)

func TestSearchEncodesRequestAndParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "shelter near Austin", gjson.GetBytes(body, "query").String())
		assert.Equal(t, int64(5), gjson.GetBytes(body, "max_results").Int())
		assert.Equal(t, "basic", gjson.GetBytes(body, "search_depth").String())

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":"shelter near Austin","results":[
			{"title":"SAFE Alliance","url":"https://www.safeaustin.org","content":"Call 512-267-7233","score":0.91},
			{"title":" Other ","url":"https://example.com","content":"x","score":0.1}
		]}`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "tvly-key", BaseURL: srv.URL, Depth: "basic", MaxResults: 5})
	require.NoError(t, err)

	resp, err := client.Search(context.Background(), "shelter near Austin")
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "SAFE Alliance", resp.Results[0].Title)
	assert.InDelta(t, 0.91, resp.Results[0].Score, 1e-9)
	assert.Equal(t, "Other", resp.Results[1].Title)
}

func TestSearchSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "q")
	var httpErr *provider.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.True(t, httpErr.Retryable())
}

func TestSearchRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = client.Search(context.Background(), "q")
	assert.Error(t, err)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
