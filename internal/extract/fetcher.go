package extract

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const maxFetchAttempts = 3

// fetchSleepFunc waits between retries; tests replace it.
var fetchSleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected status: " + e.Status
}

// Fetcher downloads pages with a size cap and a bounded redirect chain.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// NewFetcher wraps client. The client is copied so the redirect policy does
// not leak into other users of it.
func NewFetcher(client *http.Client, userAgent string, maxBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return eris.New("stopped after 5 redirects")
		}
		return nil
	}
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	return &Fetcher{httpClient: &c, userAgent: userAgent, maxBytes: maxBytes}
}

// FetchResult is a downloaded page body and the metadata extraction needs.
type FetchResult struct {
	Body        string `json:"body"`
	ContentType string `json:"content_type"`
	StatusCode  int    `json:"status_code"`
	FinalURL    string `json:"final_url"`
	Truncated   bool   `json:"truncated,omitempty"`
}

// MediaType returns the lower-cased media type without parameters.
func (r *FetchResult) MediaType() string {
	if r.ContentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(r.ContentType, ";", 2)[0]))
	}
	return mt
}

// Fetch performs a single GET of rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	// One extra byte tells us whether the cap cut the body.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	truncated := int64(len(body)) > f.maxBytes
	if truncated {
		body = body[:f.maxBytes]
	}

	return &FetchResult{
		Body:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		Truncated:   truncated,
	}, nil
}

// FetchWithRetry fetches rawURL, retrying transient failures with
// exponential backoff (500ms, 1s).
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
			zap.L().Debug("retrying fetch",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			if err := fetchSleepFunc(ctx, backoff); err != nil {
				return nil, eris.Wrap(lastErr, "fetch interrupted")
			}
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, eris.Wrapf(lastErr, "giving up after %d attempts", maxFetchAttempts)
}

// isRetryableFetchError reports whether err is worth another attempt:
// 429, 5xx and dropped or refused connections.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused")
}
