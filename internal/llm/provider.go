// Package llm talks to the language models that judge document stance.
// Providers share one request shape; cross-cutting concerns such as rate
// limiting, retries, metrics and tracing are layered on as middleware.
package llm

import (
	"context"
)

// Default models per provider, used when the config leaves the model empty.
const (
	DefaultGeminiModel    = "gemini-2.5-flash-lite"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultOllamaModel    = "llama3.1"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Model returns the model requests are sent to
	Model() string

	// Complete sends one prompt and returns the model's text
	Complete(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request is a single-turn completion request
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64

	// JSON asks providers that support it for a JSON-only response
	JSON bool
}

// Response is the text a model produced and its token usage
type Response struct {
	Text      string
	Model     string
	TokensIn  int
	TokensOut int
}

// Middleware wraps a Provider with additional behavior
type Middleware func(next Provider) Provider

// Chain applies middlewares so that the first one listed is outermost.
func Chain(p Provider, mws ...Middleware) Provider {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			p = mws[i](p)
		}
	}
	return p
}

// wrapped forwards the descriptive methods to the next provider; middlewares
// embed it and override Complete.
type wrapped struct {
	next Provider
}

func (w wrapped) Name() string { return w.next.Name() }

func (w wrapped) Model() string { return w.next.Model() }

func (w wrapped) IsAvailable(ctx context.Context) bool { return w.next.IsAvailable(ctx) }

func (w wrapped) Complete(ctx context.Context, req Request) (*Response, error) {
	return w.next.Complete(ctx, req)
}

// estimateTokens approximates token usage when a backend does not report it.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}
