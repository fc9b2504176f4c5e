package search

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ppiankov/newsguard/internal/model"
)

// Google Programmable Search returns at most this many results per call.
const googleMaxNum = 10

// Option configures a searcher
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the searcher at a different endpoint (tests, proxies).
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient sets the HTTP client for REST backends. The Google backend
// authenticates by API key and keeps its own transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// GoogleSearcher queries Google Programmable Search (Custom Search JSON API)
type GoogleSearcher struct {
	svc      *customsearch.Service
	engineID string
	initErr  error
}

// NewGoogleSearcher creates a Google searcher. Missing credentials are
// reported as auth failures on Search rather than here, so that the CLI can
// still start and report a NotEnoughEvidence verdict.
func NewGoogleSearcher(cfg model.SearchConfig, opts ...Option) (*GoogleSearcher, error) {
	o := &options{baseURL: cfg.BaseURL}
	for _, opt := range opts {
		opt(o)
	}

	g := &GoogleSearcher{engineID: cfg.EngineID}
	if cfg.APIKey == "" || cfg.EngineID == "" {
		g.initErr = errors.New("GOOGLE_API_KEY and GOOGLE_CSE_ID must be set")
		return g, nil
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(strings.TrimSuffix(o.baseURL, "/")+"/"))
	}

	svc, err := customsearch.NewService(context.Background(), clientOpts...)
	if err != nil {
		return nil, newRetrievalError("google", KindNetwork, err)
	}
	g.svc = svc
	return g, nil
}

// Name returns the backend name
func (g *GoogleSearcher) Name() string {
	return "google"
}

// Search runs one Custom Search query
func (g *GoogleSearcher) Search(ctx context.Context, query string, n int) ([]model.Candidate, error) {
	if g.initErr != nil {
		return nil, newRetrievalError(g.Name(), KindAuth, g.initErr)
	}
	if n <= 0 || n > googleMaxNum {
		n = googleMaxNum
	}

	res, err := g.svc.Cse.List().
		Cx(g.engineID).
		Q(query).
		Num(int64(n)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, newRetrievalError(g.Name(), classifyGoogleError(err), err)
	}

	candidates := make([]model.Candidate, 0, len(res.Items))
	for i, item := range res.Items {
		if item == nil || item.Link == "" {
			continue
		}
		candidates = append(candidates, model.Candidate{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
			Rank:    i + 1,
		})
	}
	return candidates, nil
}

// classifyGoogleError maps Custom Search API failures onto error kinds.
// Quota problems come back as 429, or as 403 with a *Limit* reason.
func classifyGoogleError(err error) ErrorKind {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return KindNetwork
	}
	for _, item := range apiErr.Errors {
		reason := strings.ToLower(item.Reason)
		if strings.Contains(reason, "limit") || strings.Contains(reason, "quota") {
			return KindQuota
		}
		if reason == "keyinvalid" {
			return KindAuth
		}
	}
	if apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "api key") {
		return KindAuth
	}
	return kindForStatus(apiErr.Code)
}
