package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/newsguard/internal/model"
)

func newJinaTestSearcher(t *testing.T, handler http.HandlerFunc) *JinaSearcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	j := NewJinaSearcher(model.SearchConfig{APIKey: "test-key"}, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	j.sleep = func(context.Context, time.Duration) error { return nil }
	return j
}

func TestJinaSearcher_Success(t *testing.T) {
	j := newJinaTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/Eiffel Tower height", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("num"))

		_ = json.NewEncoder(w).Encode(jinaResponse{Code: 200, Data: []jinaResult{
			{Title: "Eiffel Tower", URL: "https://en.wikipedia.org/wiki/Eiffel_Tower", Description: "Wrought-iron tower"},
			{Title: "Content only", URL: "https://example.com/x", Content: "Body text"},
			{Title: "No URL"},
		}})
	})

	got, err := j.Search(context.Background(), "Eiffel Tower height", 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Wrought-iron tower", got[0].Snippet)
	assert.Equal(t, "Body text", got[1].Snippet)
	assert.Equal(t, 2, got[1].Rank)
}

func TestJinaSearcher_NoResults(t *testing.T) {
	j := newJinaTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	got, err := j.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJinaSearcher_RetriesTransient(t *testing.T) {
	var attempts atomic.Int32
	j := newJinaTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(jinaResponse{Code: 200, Data: []jinaResult{{URL: "https://a.example"}}})
	})

	got, err := j.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestJinaSearcher_ErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusPaymentRequired, KindQuota},
		{http.StatusTooManyRequests, KindQuota},
		{http.StatusBadGateway, KindNetwork},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			j := newJinaTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := j.Search(context.Background(), "q", 10)
			var re *RetrievalError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.want, re.Kind)
		})
	}
}

func TestJinaSearcher_MissingKey(t *testing.T) {
	j := NewJinaSearcher(model.SearchConfig{})
	_, err := j.Search(context.Background(), "q", 10)
	var re *RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindAuth, re.Kind)
}
