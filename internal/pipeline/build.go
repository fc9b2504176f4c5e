package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/newsguard/internal/cache"
	"github.com/ppiankov/newsguard/internal/extract"
	"github.com/ppiankov/newsguard/internal/llm"
	"github.com/ppiankov/newsguard/internal/metrics"
	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/search"
	"github.com/ppiankov/newsguard/internal/stance"
	"github.com/ppiankov/newsguard/internal/trust"
	"github.com/ppiankov/newsguard/internal/util"
	"github.com/ppiankov/newsguard/internal/worker"
)

// Build wires the production pipeline from cfg: the configured search
// backend behind a cache, the extractor with robots and per-domain limits,
// the trust table, and the LLM judge with its middleware stack. m may be nil.
func Build(ctx context.Context, cfg *model.Config, m *metrics.Metrics) (*Pipeline, error) {
	c := cache.New(cfg.Cache)

	searcher, err := search.New(cfg.Search,
		search.WithHTTPClient(util.NewHTTPClient(cfg.HTTP, cfg.Search.Timeout)))
	if err != nil {
		return nil, eris.Wrap(err, "create searcher")
	}
	retriever := search.NewRetriever(searcher, cfg.Search.TopN, c, cfg.Cache.SearchTTL)

	limiter := worker.NewLimiter(cfg.HTTP.DomainRate, cfg.HTTP.DomainBurst)
	extractor := extract.New(cfg, util.NewHTTPClient(cfg.HTTP, cfg.HTTP.FetchTimeout), limiter, c)

	// The LLM client has no overall timeout; TimeoutMiddleware bounds each attempt.
	var observer llm.Observer
	if m != nil {
		observer = m
	}
	provider, err := llm.Build(ctx, cfg.LLM, util.NewHTTPClient(cfg.HTTP, 0), observer)
	if err != nil {
		return nil, eris.Wrap(err, "create LLM provider")
	}

	zap.L().Debug("pipeline ready",
		zap.String("search", searcher.Name()),
		zap.String("llm_provider", provider.Name()),
		zap.String("llm_model", provider.Model()),
		zap.Bool("cache", c != nil),
		zap.Bool("robots", cfg.HTTP.RespectRobots),
	)

	return New(cfg, retriever, extractor, trust.NewScorer(cfg.Trust), stance.New(provider, cfg.LLM),
		WithMetrics(m),
		WithModelInfo(provider.Name(), provider.Model()),
	), nil
}
