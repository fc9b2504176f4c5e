package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/newsguard/internal/model"
)

const jinaSearchURL = "https://s.jina.ai"

// JinaSearcher queries the Jina AI search API
type JinaSearcher struct {
	apiKey  string
	baseURL string
	http    *http.Client
	sleep   func(context.Context, time.Duration) error
}

type jinaResponse struct {
	Code int          `json:"code"`
	Data []jinaResult `json:"data"`
}

type jinaResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// NewJinaSearcher creates a Jina searcher
func NewJinaSearcher(cfg model.SearchConfig, opts ...Option) *JinaSearcher {
	o := &options{baseURL: cfg.BaseURL}
	for _, opt := range opts {
		opt(o)
	}
	if o.baseURL == "" {
		o.baseURL = jinaSearchURL
	}
	if o.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		o.httpClient = &http.Client{Timeout: timeout}
	}
	return &JinaSearcher{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(o.baseURL, "/"),
		http:    o.httpClient,
		sleep:   sleepCtx,
	}
}

// Name returns the backend name
func (j *JinaSearcher) Name() string {
	return "jina"
}

// Search runs one Jina search query
func (j *JinaSearcher) Search(ctx context.Context, query string, n int) ([]model.Candidate, error) {
	if j.apiKey == "" {
		return nil, newRetrievalError(j.Name(), KindAuth, eris.New("JINA_API_KEY must be set"))
	}

	reqURL := j.baseURL + "/" + url.PathEscape(query)
	if n > 0 {
		reqURL += "?num=" + strconv.Itoa(n)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, newRetrievalError(j.Name(), KindNetwork, eris.Wrap(err, "jina: create search request"))
	}
	req.Header.Set("Authorization", "Bearer "+j.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Respond-With", "no-content")

	body, status, err := j.retryDo(ctx, req)
	if err != nil {
		return nil, newRetrievalError(j.Name(), KindNetwork, eris.Wrap(err, "jina: search request failed"))
	}

	// 422 means no results for the query.
	if status == http.StatusUnprocessableEntity {
		return []model.Candidate{}, nil
	}
	if status != http.StatusOK {
		return nil, newRetrievalError(j.Name(), kindForStatus(status),
			eris.Errorf("jina: unexpected status %d: %s", status, truncate(string(body), 200)))
	}

	var parsed jinaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, newRetrievalError(j.Name(), KindNetwork, eris.Wrap(err, "jina: unmarshal search response"))
	}

	candidates := make([]model.Candidate, 0, len(parsed.Data))
	for i, r := range parsed.Data {
		if r.URL == "" {
			continue
		}
		snippet := r.Description
		if snippet == "" {
			snippet = truncate(r.Content, 300)
		}
		candidates = append(candidates, model.Candidate{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: snippet,
			Rank:    i + 1,
		})
	}
	return candidates, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes req with exponential backoff on transient failures,
// returning the final body and status.
func (j *JinaSearcher) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 500 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := j.http.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				return nil, resp.StatusCode, eris.Wrap(readErr, "jina: read response body")
			}
			if !retryableStatus(resp.StatusCode) || attempt == maxAttempts {
				return body, resp.StatusCode, nil
			}
			lastErr = eris.Errorf("jina: status %d", resp.StatusCode)
		}

		if attempt < maxAttempts {
			if err := j.sleep(ctx, backoff); err != nil {
				return nil, 0, err
			}
			backoff *= 2
		}
	}
	return nil, 0, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
