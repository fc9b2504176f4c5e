package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/newsguard/internal/model"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProvider implements the Provider interface for Ollama local models
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	classifier errorClassifier
}

// Ollama API structures
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider. No API key is needed.
func NewOllamaProvider(cfg model.LLMConfig, httpClient *http.Client) (*OllamaProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultOllamaModel
	}

	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      modelName,
		httpClient: httpClient,
		classifier: errorClassifier{provider: "ollama"},
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Model returns the configured model
func (p *OllamaProvider) Model() string {
	return p.model
}

// IsAvailable checks that the Ollama server answers on /api/tags
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		zap.L().Warn("Ollama availability check failed", zap.Error(err))
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("Ollama availability check failed", zap.String("url", p.baseURL), zap.Error(err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("Ollama availability check failed", zap.String("url", p.baseURL), zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}

// Complete sends the prompt to /api/generate without streaming
func (p *OllamaProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	apiReq := ollamaRequest{
		Model:  p.model,
		Prompt: req.Prompt,
		System: req.System,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
	if req.JSON {
		apiReq.Format = "json"
	}

	resp, err := p.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(resp.Response)
	if text == "" {
		return nil, p.classifier.classify(ErrEmptyResponse)
	}

	out := &Response{
		Text:      text,
		Model:     resp.Model,
		TokensIn:  resp.PromptEvalCount,
		TokensOut: resp.EvalCount,
	}
	// Some models report no counts
	if out.TokensIn == 0 {
		out.TokensIn = estimateTokens(req.System + req.Prompt)
	}
	if out.TokensOut == 0 {
		out.TokensOut = estimateTokens(text)
	}
	return out, nil
}

// makeRequest makes an HTTP request to the Ollama API
func (p *OllamaProvider) makeRequest(ctx context.Context, apiReq ollamaRequest) (*ollamaResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, eris.Wrap(err, "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError("ollama", ErrorTypeBadRequest, 0, "create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, p.classifier.classify(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, p.classifier.classify(err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		var apiErr ollamaError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, p.classifier.classifyHTTP(httpResp.StatusCode, msg, nil)
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, NewProviderError("ollama", ErrorTypeUnknown, httpResp.StatusCode, "unmarshal response", err)
	}
	return &resp, nil
}
