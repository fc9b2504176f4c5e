// Package pipeline runs one claim through retrieval, extraction, trust
// scoring, stance judgment and aggregation under a single request deadline.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ppiankov/newsguard/internal/metrics"
	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/util"
	"github.com/ppiankov/newsguard/internal/verdict"
	"github.com/ppiankov/newsguard/internal/worker"
)

// Retriever finds candidate sources for a claim
type Retriever interface {
	Name() string
	Retrieve(ctx context.Context, claim model.Claim) ([]model.Candidate, error)
}

// Extractor reads one candidate. It reports failure on the document.
type Extractor interface {
	Extract(ctx context.Context, c model.Candidate) model.Document
}

// Scorer assigns a trust weight to a document
type Scorer interface {
	Score(doc model.Document) model.TrustScore
	TableVersion() string
}

// Judge classifies one document's stance toward the claim. It reports
// failure on the judgment.
type Judge interface {
	Judge(ctx context.Context, claim model.Claim, doc model.Document) model.StanceJudgment
}

// Pipeline orchestrates the complete credibility check. One Pipeline serves
// any number of concurrent requests; admission bounds how many run at once.
type Pipeline struct {
	retriever  Retriever
	extractor  Extractor
	scorer     Scorer
	judge      Judge
	aggregator *verdict.Aggregator
	metrics    *metrics.Metrics
	admission  *semaphore.Weighted
	tracer     trace.Tracer

	requestTimeout time.Duration
	extractWorkers int
	judgeWorkers   int
	provider       string
	model          string
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMetrics records stage latencies and outcomes on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithModelInfo labels analyses with the judging provider and model
func WithModelInfo(provider, model string) Option {
	return func(p *Pipeline) {
		p.provider = provider
		p.model = model
	}
}

// New creates a pipeline from its stages. cfg supplies the concurrency,
// deadline and verdict settings.
func New(cfg *model.Config, r Retriever, e Extractor, s Scorer, j Judge, opts ...Option) *Pipeline {
	maxRequests := int64(cfg.Pipeline.MaxConcurrentRequests)
	if maxRequests <= 0 {
		maxRequests = 1
	}

	p := &Pipeline{
		retriever:      r,
		extractor:      e,
		scorer:         s,
		judge:          j,
		aggregator:     verdict.New(cfg.Verdict),
		admission:      semaphore.NewWeighted(maxRequests),
		tracer:         otel.Tracer("github.com/ppiankov/newsguard/internal/pipeline"),
		requestTimeout: cfg.Pipeline.RequestTimeout,
		extractWorkers: max(cfg.Pipeline.ExtractWorkers, 1),
		judgeWorkers:   max(cfg.Pipeline.JudgeWorkers, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type requestIDKey struct{}

// WithRequestID returns a context whose Check calls use id instead of a
// fresh one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Check runs the full pipeline for one claim. It always returns an analysis
// with a verdict; failures at any stage degrade the verdict instead of
// surfacing as errors.
func (p *Pipeline) Check(ctx context.Context, text string) *model.Analysis {
	start := time.Now()
	analysis := &model.Analysis{
		RequestID:  requestID(ctx),
		CheckedAt:  start.UTC(),
		Candidates: []model.Candidate{},
		Documents:  []model.Document{},
		Trust:      []model.TrustScore{},
		Judgments:  []model.StanceJudgment{},
		TrustTable: p.scorer.TableVersion(),
		Provider:   p.provider,
		Model:      p.model,
	}
	log := zap.L().With(zap.String("request_id", analysis.RequestID))

	ctx, span := p.tracer.Start(ctx, "pipeline.check", trace.WithAttributes(
		attribute.String("request_id", analysis.RequestID),
	))
	defer span.End()

	defer func() {
		analysis.Elapsed = model.Duration(time.Since(start))
		p.metrics.Verdict(string(analysis.Verdict.Label))
		p.metrics.ObserveStage("total", time.Since(start))
		span.SetAttributes(
			attribute.String("verdict.label", string(analysis.Verdict.Label)),
			attribute.Float64("verdict.score", analysis.Verdict.Score),
		)
		log.Info("claim checked",
			zap.String("label", string(analysis.Verdict.Label)),
			zap.Float64("score", analysis.Verdict.Score),
			zap.Int("candidates", analysis.Verdict.Coverage.Candidates),
			zap.Int("usable", analysis.Verdict.Coverage.Usable),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	claim, err := model.NewClaim(text)
	if err != nil {
		analysis.Claim = model.Claim{Text: strings.TrimSpace(text)}
		analysis.Verdict = p.aggregator.Aggregate(analysis.Claim, nil, nil)
		return analysis
	}
	analysis.Claim = claim

	if p.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.requestTimeout)
		defer cancel()
	}

	if err := p.admission.Acquire(ctx, 1); err != nil {
		p.metrics.Rejected()
		log.Warn("request not admitted", zap.Error(err))
		span.SetStatus(codes.Error, "not admitted")
		analysis.Verdict = p.aggregator.NotEnoughEvidence(
			"The checker was at capacity and the request ran out of time waiting for a slot.", model.Coverage{})
		return analysis
	}
	defer p.admission.Release(1)
	p.metrics.RequestStarted()
	defer p.metrics.RequestFinished()

	candidates, err := p.retrieve(ctx, claim)
	if err != nil {
		analysis.RetrievalError = err.Error()
		log.Warn("retrieval failed", zap.String("stage", "retrieve"), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		analysis.Verdict = p.aggregator.NotEnoughEvidence(
			"Source search failed, so no evidence could be gathered ("+err.Error()+").", model.Coverage{})
		return analysis
	}
	analysis.Candidates = candidates

	analysis.Documents, analysis.Trust = p.extractAll(ctx, candidates)
	analysis.Judgments = p.judgeAll(ctx, claim, analysis.Documents)

	stageStart := time.Now()
	analysis.Verdict = p.aggregator.Aggregate(claim, analysis.Trust, analysis.Judgments)
	p.metrics.ObserveStage("aggregate", time.Since(stageStart))

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Warn("request deadline exceeded, verdict built from completed work")
		span.AddEvent("deadline exceeded")
	}
	return analysis
}

func (p *Pipeline) retrieve(ctx context.Context, claim model.Claim) ([]model.Candidate, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.retrieve", trace.WithAttributes(
		attribute.String("search.provider", p.retriever.Name()),
	))
	defer span.End()
	start := time.Now()
	defer func() { p.metrics.ObserveStage("retrieve", time.Since(start)) }()

	candidates, err := p.retriever.Retrieve(ctx, claim)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("search.results", len(candidates)))
	return candidates, nil
}

type extraction struct {
	doc   model.Document
	trust model.TrustScore
}

func (e *extraction) GetError() error { return nil }

// extractAll reads and scores every candidate on a bounded pool. Candidates
// whose job had not finished when ctx ended become fetch_failed documents.
// The result has exactly one document and one trust score per candidate.
func (p *Pipeline) extractAll(ctx context.Context, candidates []model.Candidate) ([]model.Document, []model.TrustScore) {
	ctx, span := p.tracer.Start(ctx, "pipeline.extract", trace.WithAttributes(
		attribute.Int("candidates", len(candidates)),
	))
	defer span.End()
	start := time.Now()
	defer func() { p.metrics.ObserveStage("extract", time.Since(start)) }()

	docs := make([]model.Document, len(candidates))
	scores := make([]model.TrustScore, len(candidates))
	if len(candidates) == 0 {
		return docs, scores
	}

	pool := worker.NewPool(ctx, worker.Size(len(candidates), p.extractWorkers))
	pool.Start()
	for _, c := range candidates {
		pool.Submit(worker.JobFunc(func(ctx context.Context) worker.Result {
			doc := p.extractor.Extract(ctx, c)
			return &extraction{doc: doc, trust: p.scorer.Score(doc)}
		}))
	}
	results := pool.Wait()

	for i, c := range candidates {
		if r, ok := results[i].(*extraction); ok {
			docs[i], scores[i] = r.doc, r.trust
		} else {
			docs[i] = unfinishedDocument(ctx, c)
			scores[i] = p.scorer.Score(docs[i])
		}
		p.metrics.Document(string(docs[i].Status))
	}
	return docs, scores
}

type judgment struct {
	model.StanceJudgment
}

func (j *judgment) GetError() error { return nil }

// judgeAll judges every extracted document on a bounded pool. Documents
// whose judgment had not finished when ctx ended get a model_error judgment.
func (p *Pipeline) judgeAll(ctx context.Context, claim model.Claim, docs []model.Document) []model.StanceJudgment {
	var extracted []model.Document
	for _, d := range docs {
		if d.OK() {
			extracted = append(extracted, d)
		}
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.judge", trace.WithAttributes(
		attribute.Int("documents", len(extracted)),
	))
	defer span.End()
	start := time.Now()
	defer func() { p.metrics.ObserveStage("judge", time.Since(start)) }()

	out := make([]model.StanceJudgment, len(extracted))
	if len(extracted) == 0 {
		return out
	}

	pool := worker.NewPool(ctx, worker.Size(len(extracted), p.judgeWorkers))
	pool.Start()
	for _, d := range extracted {
		pool.Submit(worker.JobFunc(func(ctx context.Context) worker.Result {
			return &judgment{p.judge.Judge(ctx, claim, d)}
		}))
	}
	results := pool.Wait()

	for i, d := range extracted {
		if r, ok := results[i].(*judgment); ok {
			out[i] = r.StanceJudgment
		} else {
			out[i] = model.FailedJudgment(d.Ref(), model.JudgeModelError, interruption(ctx))
		}
		p.metrics.Judgment(string(out[i].Status), string(out[i].Stance))
	}
	return out
}

func unfinishedDocument(ctx context.Context, c model.Candidate) model.Document {
	return model.Document{
		Candidate: c,
		Domain:    util.Domain(c.URL),
		Status:    model.ExtractionFetchFailed,
		Error:     interruption(ctx),
	}
}

func interruption(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return "cancelled"
	}
	return "deadline exceeded"
}
