package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateLimited makes every call wait on a shared token bucket.
type rateLimited struct {
	wrapped
	limiter *rate.Limiter
}

// RateLimitMiddleware paces requests through limiter. The limiter is meant
// to be shared by every request so that concurrent claims draw from one
// provider budget.
func RateLimitMiddleware(limiter *rate.Limiter) Middleware {
	return func(next Provider) Provider {
		return &rateLimited{wrapped: wrapped{next}, limiter: limiter}
	}
}

func (r *rateLimited) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, NewProviderError(r.Name(), ErrorTypeTimeout, 0, "waiting for rate limit", err)
	}
	return r.next.Complete(ctx, req)
}

// retrySleep waits between attempts; tests replace it.
var retrySleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type retrying struct {
	wrapped
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// RetryMiddleware retries retryable provider errors with exponential backoff
// and jitter, making at most maxAttempts calls.
func RetryMiddleware(maxAttempts int, baseDelay, maxDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return func(next Provider) Provider {
		return &retrying{
			wrapped:     wrapped{next},
			maxAttempts: maxAttempts,
			baseDelay:   baseDelay,
			maxDelay:    maxDelay,
		}
	}
}

func (r *retrying) Complete(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.delay(attempt - 1)
			zap.L().Debug("retrying model request",
				zap.String("provider", r.Name()),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(lastErr),
			)
			if err := retrySleep(ctx, delay); err != nil {
				return nil, lastErr
			}
		}

		resp, err := r.next.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || !IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (r *retrying) delay(attempt int) time.Duration {
	if attempt > 16 {
		attempt = 16
	}
	d := r.baseDelay * time.Duration(1<<uint(attempt))
	// ±25% jitter
	d = d - d/4 + time.Duration(rand.Float64()*float64(d)/2)
	if r.maxDelay > 0 && d > r.maxDelay {
		d = r.maxDelay
	}
	return d
}

type timeLimited struct {
	wrapped
	timeout time.Duration
}

// TimeoutMiddleware bounds each call (each attempt, when placed inside retries).
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Provider) Provider {
		if timeout <= 0 {
			return next
		}
		return &timeLimited{wrapped: wrapped{next}, timeout: timeout}
	}
}

func (t *timeLimited) Complete(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, req)
}

// Observer receives one record per model call.
type Observer interface {
	ObserveLLM(provider, model, status string, d time.Duration, tokensIn, tokensOut int)
}

type observed struct {
	wrapped
	observer Observer
}

// MetricsMiddleware reports latency, outcome and token usage of every call.
func MetricsMiddleware(observer Observer) Middleware {
	return func(next Provider) Provider {
		return &observed{wrapped: wrapped{next}, observer: observer}
	}
}

func (o *observed) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := o.next.Complete(ctx, req)

	status := "success"
	in, out := 0, 0
	if err != nil {
		status = errorStatus(err)
	} else {
		in, out = resp.TokensIn, resp.TokensOut
	}
	o.observer.ObserveLLM(o.Name(), o.Model(), status, time.Since(start), in, out)
	return resp, err
}

func errorStatus(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Type.String()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

type traced struct {
	wrapped
	tracer trace.Tracer
}

// TracingMiddleware wraps each call in an OpenTelemetry span. Without an
// installed SDK the global tracer is a no-op.
func TracingMiddleware() Middleware {
	return func(next Provider) Provider {
		return &traced{wrapped: wrapped{next}, tracer: otel.Tracer("github.com/ppiankov/newsguard/internal/llm")}
	}
}

func (t *traced) Complete(ctx context.Context, req Request) (*Response, error) {
	ctx, span := t.tracer.Start(ctx, "llm.complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", t.Name()),
			attribute.String("llm.model", t.Model()),
			attribute.Int("llm.prompt.length", len(req.Prompt)),
		),
	)
	defer span.End()

	resp, err := t.next.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("llm.tokens.input", resp.TokensIn),
		attribute.Int("llm.tokens.output", resp.TokensOut),
	)
	span.SetStatus(codes.Ok, "")
	return resp, nil
}
