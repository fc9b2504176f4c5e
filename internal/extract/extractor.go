// Package extract downloads candidate pages and isolates their main text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ppiankov/newsguard/internal/cache"
	"github.com/ppiankov/newsguard/internal/extract/adapters"
	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/util"
	"github.com/ppiankov/newsguard/internal/worker"
)

// Extractor turns candidates into documents. Every failure is recorded on
// the returned document's status.
type Extractor struct {
	fetcher  *Fetcher
	registry *adapters.Registry
	robots   *util.RobotsChecker
	limiter  *worker.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
	minChars int
	maxChars int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRobots enables robots.txt compliance.
func WithRobots(r *util.RobotsChecker) Option {
	return func(e *Extractor) { e.robots = r }
}

// WithLimiter shares a per-domain rate limiter with the extractor.
func WithLimiter(l *worker.Limiter) Option {
	return func(e *Extractor) { e.limiter = l }
}

// WithCache stores fetched pages in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(e *Extractor) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// WithTextBounds sets the minimum text length for a usable document and
// the length extracted text is truncated to.
func WithTextBounds(minChars, maxChars int) Option {
	return func(e *Extractor) {
		e.minChars = minChars
		e.maxChars = maxChars
	}
}

// NewExtractor creates an extractor around fetcher.
func NewExtractor(fetcher *Fetcher, opts ...Option) *Extractor {
	e := &Extractor{
		fetcher:  fetcher,
		registry: adapters.NewRegistry(),
		minChars: 200,
		maxChars: 20000,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// New builds the extractor described by cfg. client is the shared outbound
// client; limiter and c may be nil.
func New(cfg *model.Config, client *http.Client, limiter *worker.Limiter, c cache.Cache) *Extractor {
	opts := []Option{
		WithLimiter(limiter),
		WithCache(c, cfg.Cache.FetchTTL),
		WithTextBounds(cfg.Pipeline.MinTextChars, cfg.Pipeline.MaxTextChars),
	}
	if cfg.HTTP.RespectRobots {
		opts = append(opts, WithRobots(util.NewRobotsChecker(client, cfg.HTTP.UserAgent, time.Hour)))
	}
	return NewExtractor(NewFetcher(client, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes), opts...)
}

// Extract fetches and reads one candidate. It never fails; the outcome is on
// the document's Status and Error.
func (e *Extractor) Extract(ctx context.Context, c model.Candidate) model.Document {
	doc := model.Document{Candidate: c, Domain: util.Domain(c.URL)}
	if doc.Domain == "" {
		return failed(doc, model.ExtractionFetchFailed, "invalid URL")
	}

	result, status, err := e.fetch(ctx, c.URL)
	if err != nil {
		zap.L().Debug("extraction failed",
			zap.String("url", c.URL),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return failed(doc, status, reason(ctx, err))
	}

	page, err := e.read(result, c.URL)
	if err != nil {
		return failed(doc, model.ExtractionParseFailed, err.Error())
	}

	if doc.Candidate.Title == "" {
		doc.Candidate.Title = page.Title
	}
	doc.MetaDescription = page.MetaDescription
	doc.Text = truncateRunes(page.Text, e.maxChars)

	if n := utf8.RuneCountInString(doc.Text); n < e.minChars {
		return failed(doc, model.ExtractionExcluded, fmt.Sprintf("text too short (%d chars)", n))
	}
	doc.Status = model.ExtractionOK
	return doc
}

// fetch applies robots rules and rate limits, then downloads rawURL through
// the page cache.
func (e *Extractor) fetch(ctx context.Context, rawURL string) (*FetchResult, model.ExtractionStatus, error) {
	key := cache.Key("page", rawURL)
	var cached FetchResult
	if cache.GetJSON(e.cache, key, &cached) {
		return &cached, "", nil
	}

	if e.robots != nil {
		allowed, delay, err := e.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, model.ExtractionFetchFailed, err
		}
		if !allowed {
			return nil, model.ExtractionExcluded, eris.New("disallowed by robots.txt")
		}
		if delay > 0 && e.limiter != nil {
			e.limiter.ApplyCrawlDelay(rawURL, delay)
		}
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, rawURL); err != nil {
			return nil, model.ExtractionFetchFailed, err
		}
	}

	result, err := e.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, model.ExtractionFetchFailed, err
	}
	if err := cache.SetJSON(e.cache, key, result, e.cacheTTL); err != nil {
		zap.L().Debug("page cache write failed", zap.String("url", rawURL), zap.Error(err))
	}
	return result, "", nil
}

// read parses a fetched body into a page.
func (e *Extractor) read(result *FetchResult, rawURL string) (adapters.Page, error) {
	mediaType := result.MediaType()
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
	case mediaType == "text/plain":
		return adapters.Page{Text: strings.Join(strings.Fields(result.Body), " ")}, nil
	default:
		return adapters.Page{}, eris.Errorf("unsupported content type %s", mediaType)
	}

	if !utf8.ValidString(result.Body) {
		result.Body = strings.ToValidUTF8(result.Body, "")
	}
	node, err := html.Parse(strings.NewReader(result.Body))
	if err != nil {
		return adapters.Page{}, eris.Wrap(err, "parse html")
	}

	finalURL := result.FinalURL
	if finalURL == "" {
		finalURL = rawURL
	}
	page := e.registry.FindAdapter(finalURL, mediaType).Extract(node, finalURL)
	if page.Text == "" {
		return page, eris.New("no readable text")
	}
	return page, nil
}

func failed(doc model.Document, status model.ExtractionStatus, msg string) model.Document {
	doc.Status = status
	doc.Error = msg
	doc.Text = ""
	return doc
}

func reason(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "deadline exceeded"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}

// truncateRunes cuts s to at most n runes, backing up to a word boundary.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)[:n]
	cut := string(runes)
	if i := strings.LastIndexAny(cut, " \n"); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
