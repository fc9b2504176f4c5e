package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ppiankov/newsguard/internal/model"
)

// GeminiProvider implements the Provider interface for Google's Gemini API
type GeminiProvider struct {
	client     *genai.Client
	model      string
	classifier errorClassifier
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, cfg model.LLMConfig, httpClient *http.Client) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, NewProviderError("gemini", ErrorTypeAuthentication, 0, "Gemini API key is required", ErrEmptyAPIKey)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimSuffix(cfg.BaseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, NewProviderError("gemini", ErrorTypeUnknown, 0, "create client", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	return &GeminiProvider{
		client:     client,
		model:      modelName,
		classifier: errorClassifier{provider: "gemini"},
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the configured model
func (p *GeminiProvider) Model() string {
	return p.model
}

// IsAvailable looks up the configured model
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.Models.Get(ctx, p.model, nil); err != nil {
		zap.L().Warn("Gemini API check failed", zap.Error(err))
		return false
	}
	return true
}

// Complete sends the prompt through GenerateContent. Gemini has no system
// role in this call shape, so the system prompt is prepended.
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	prompt := req.Prompt
	if req.System != "" {
		prompt = fmt.Sprintf("System: %s\n\nUser: %s", req.System, req.Prompt)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(min(req.MaxTokens, math.MaxInt32))
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, config)
	if err != nil {
		return nil, p.wrapError(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, p.classifier.classify(ErrEmptyResponse)
	}

	out := &Response{Text: text, Model: p.model}
	if usage := resp.UsageMetadata; usage != nil {
		out.TokensIn = int(usage.PromptTokenCount)
		out.TokensOut = int(usage.CandidatesTokenCount)
	}
	if out.TokensIn == 0 {
		out.TokensIn = estimateTokens(prompt)
	}
	if out.TokensOut == 0 {
		out.TokensOut = estimateTokens(text)
	}
	return out, nil
}

func (p *GeminiProvider) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if strings.Contains(strings.ToLower(apiErr.Status), "resource_exhausted") {
			return NewProviderError("gemini", ErrorTypeRateLimit, apiErr.Code, apiErr.Message, err)
		}
		return p.classifier.classifyHTTP(apiErr.Code, apiErr.Message, err)
	}
	return p.classifier.classify(err)
}
