package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/newsguard/internal/model"
)

func TestRobotsChecker_CanFetch(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusOK)
			return
		}
		hits.Add(1)
		_, _ = fmt.Fprint(w, "User-agent: newsguard\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
	}))
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "Mozilla/5.0 (compatible; newsguard/0.3; +https://example.org)", time.Minute)

	allowed, delay, err := rc.CanFetch(context.Background(), server.URL+"/news/story")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	assert.False(t, rc.IsAllowed(context.Background(), server.URL+"/private/page"))
	assert.Equal(t, int32(1), hits.Load(), "robots.txt should be fetched once per host")
}

func TestRobotsChecker_MissingFileAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "newsguard/0.3", time.Minute)
	assert.True(t, rc.IsAllowed(context.Background(), server.URL+"/anything"))
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	rc := NewRobotsChecker(&http.Client{Timeout: time.Second}, "newsguard/0.3", time.Minute)
	allowed, _, err := rc.CanFetch(context.Background(), addr+"/a")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRobotsChecker_BadURL(t *testing.T) {
	rc := NewRobotsChecker(nil, "newsguard", time.Minute)
	_, _, err := rc.CanFetch(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "newsguard", NormalizeUserAgent("Mozilla/5.0 (compatible; newsguard/0.3; +https://x)"))
	assert.Equal(t, "newsguard", NormalizeUserAgent("newsguard/1.0 extra"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "http://sproxy:3129", "internal.example, .corp")

	req := func(raw string) *http.Request {
		u, _ := url.Parse(raw)
		return &http.Request{URL: u}
	}

	got, err := proxy(req("https://news.example.com/a"))
	require.NoError(t, err)
	assert.Equal(t, "sproxy:3129", got.Host)

	got, err = proxy(req("http://news.example.com/a"))
	require.NoError(t, err)
	assert.Equal(t, "proxy:3128", got.Host)

	got, err = proxy(req("https://api.internal.example/a"))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = proxy(req("http://build.corp/a"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(model.HTTPConfig{HTTPProxy: "http://proxy:3128"}, 3*time.Second)
	assert.Equal(t, 3*time.Second, c.Timeout)
	require.IsType(t, &http.Transport{}, c.Transport)
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "thehindu.com", Domain("https://www.TheHindu.com/news/a"))
	assert.Equal(t, "example.org", Domain("http://example.org:8080/x"))
	assert.Equal(t, "", Domain("::bad"))
}
