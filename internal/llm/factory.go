package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/ppiankov/newsguard/internal/model"
)

// NewProvider creates the bare provider named in cfg.
func NewProvider(ctx context.Context, cfg model.LLMConfig, httpClient *http.Client) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "google", "":
		return NewGeminiProvider(ctx, cfg, httpClient)
	case "openai":
		return NewOpenAIProvider(cfg, httpClient)
	case "anthropic", "claude":
		return NewAnthropicProvider(cfg, httpClient)
	case "ollama":
		return NewOllamaProvider(cfg, httpClient)
	default:
		return nil, eris.Errorf("unknown LLM provider: %s (supported: gemini, openai, anthropic, ollama)", cfg.Provider)
	}
}

// Build creates the provider named in cfg wrapped in the standard middleware
// stack: tracing, metrics, one shared rate limiter, retries and a per-attempt
// timeout. observer may be nil.
func Build(ctx context.Context, cfg model.LLMConfig, httpClient *http.Client, observer Observer) (Provider, error) {
	p, err := NewProvider(ctx, cfg, httpClient)
	if err != nil {
		return nil, err
	}

	var metrics Middleware
	if observer != nil {
		metrics = MetricsMiddleware(observer)
	}

	return Chain(p,
		TracingMiddleware(),
		metrics,
		RateLimitMiddleware(rate.NewLimiter(rate.Limit(cfg.RatePerSecond), max(cfg.RateBurst, 1))),
		RetryMiddleware(cfg.MaxAttempts, 500*time.Millisecond, 5*time.Second),
		TimeoutMiddleware(cfg.Timeout),
	), nil
}
