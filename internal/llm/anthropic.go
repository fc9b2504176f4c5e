package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/ppiankov/newsguard/internal/model"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	client     anthropic.Client
	model      string
	classifier errorClassifier
}

// NewAnthropicProvider creates a new Anthropic provider. The SDK's own
// retries are disabled; RetryMiddleware owns retry policy.
func NewAnthropicProvider(cfg model.LLMConfig, httpClient *http.Client) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, NewProviderError("anthropic", ErrorTypeAuthentication, 0, "Anthropic API key is required", ErrEmptyAPIKey)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultAnthropicModel
	}

	return &AnthropicProvider{
		client:     anthropic.NewClient(opts...),
		model:      modelName,
		classifier: errorClassifier{provider: "anthropic"},
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model returns the configured model
func (p *AnthropicProvider) Model() string {
	return p.model
}

// IsAvailable makes a minimal one-token request
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.Complete(ctx, Request{Prompt: "Hi", MaxTokens: 1})
	if err != nil && !errors.Is(err, ErrEmptyResponse) {
		zap.L().Warn("Anthropic API check failed", zap.Error(err))
		return false
	}
	return true
}

// Complete sends the prompt through the Messages API
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 400
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, p.wrapError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(content.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return nil, p.classifier.classify(ErrEmptyResponse)
	}

	return &Response{
		Text:      out,
		Model:     string(message.Model),
		TokensIn:  int(message.Usage.InputTokens),
		TokensOut: int(message.Usage.OutputTokens),
	}, nil
}

func (p *AnthropicProvider) wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return p.classifier.classifyHTTP(apiErr.StatusCode, "", err)
	}
	return p.classifier.classify(err)
}
