// Package search retrieves candidate evidence pages for a claim from a web
// search backend.
package search

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/newsguard/internal/cache"
	"github.com/ppiankov/newsguard/internal/model"
)

// Searcher is a web search backend. Implementations return at most n hits in
// backend rank order and classify failures as *RetrievalError.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, n int) ([]model.Candidate, error)
}

// Retriever turns a claim into a ranked, deduplicated candidate list
type Retriever struct {
	searcher Searcher
	topN     int
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewRetriever creates a retriever. c may be nil to disable caching.
func NewRetriever(searcher Searcher, topN int, c cache.Cache, cacheTTL time.Duration) *Retriever {
	if topN <= 0 {
		topN = 10
	}
	return &Retriever{
		searcher: searcher,
		topN:     topN,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// Name returns the backend name
func (r *Retriever) Name() string {
	return r.searcher.Name()
}

// Retrieve returns up to topN candidates for the claim, ranked 1..n. Zero
// hits is a valid answer. Every error is a *RetrievalError.
func (r *Retriever) Retrieve(ctx context.Context, claim model.Claim) ([]model.Candidate, error) {
	query := claim.Query
	if query == "" {
		query = model.NormalizeQuery(claim.Text)
	}
	if query == "" {
		return nil, newRetrievalError(r.searcher.Name(), KindNetwork, model.ErrEmptyClaim)
	}

	key := cache.Key("search", r.searcher.Name(), query, strconv.Itoa(r.topN))
	var cached []model.Candidate
	if cache.GetJSON(r.cache, key, &cached) {
		zap.L().Debug("search cache hit", zap.String("query", query), zap.Int("candidates", len(cached)))
		return cached, nil
	}

	hits, err := r.searcher.Search(ctx, query, r.topN)
	if err != nil {
		return nil, AsRetrievalError(r.searcher.Name(), err)
	}

	candidates := Normalize(hits, r.topN)
	if err := cache.SetJSON(r.cache, key, candidates, r.cacheTTL); err != nil {
		zap.L().Warn("search cache write failed", zap.Error(err))
	}

	zap.L().Debug("search complete",
		zap.String("provider", r.searcher.Name()),
		zap.String("query", query),
		zap.Int("hits", len(hits)),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// Normalize drops non-http(s) and duplicate URLs, keeps backend order
// (lowest original rank first), reassigns ranks 1..n and cuts to limit.
func Normalize(hits []model.Candidate, limit int) []model.Candidate {
	ordered := make([]model.Candidate, len(hits))
	copy(ordered, hits)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})

	seen := make(map[string]bool, len(ordered))
	out := make([]model.Candidate, 0, len(ordered))
	for _, h := range ordered {
		key, ok := CanonicalURL(h.URL)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		h.URL = strings.TrimSpace(h.URL)
		h.Title = strings.TrimSpace(h.Title)
		h.Snippet = strings.TrimSpace(h.Snippet)
		h.Rank = len(out) + 1
		out = append(out, h)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// CanonicalURL returns the deduplication key of rawURL and whether it is a
// fetchable http(s) URL. Scheme, host case, "www.", fragments, trailing
// slashes and utm_* tracking parameters do not distinguish pages.
func CanonicalURL(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Hostname() == "" {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(strings.ToLower(k), "utm_") {
			q.Del(k)
		}
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	key := host + path
	if enc := q.Encode(); enc != "" {
		key += "?" + enc
	}
	return key, true
}

// New builds the searcher named in cfg
func New(cfg model.SearchConfig, opts ...Option) (Searcher, error) {
	switch cfg.Provider {
	case "google", "":
		return NewGoogleSearcher(cfg, opts...)
	case "jina":
		return NewJinaSearcher(cfg, opts...), nil
	default:
		return nil, eris.Errorf("unknown search provider: %s (supported: google, jina)", cfg.Provider)
	}
}
