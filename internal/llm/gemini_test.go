package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/newsguard/internal/model"
)

func newGeminiTestProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewGeminiProvider(context.Background(), model.LLMConfig{APIKey: "test-key", BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	return provider
}

func TestGeminiProvider_Complete_Success(t *testing.T) {
	provider := newGeminiTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/"+DefaultGeminiModel+":generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		cfg, _ := body["generationConfig"].(map[string]any)
		if cfg["responseMimeType"] != "application/json" {
			t.Errorf("Expected JSON mime type, got %v", cfg["responseMimeType"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"stance\":\"support\"}"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 31, "candidatesTokenCount": 7}
		}`))
	})

	if provider.Model() != DefaultGeminiModel {
		t.Errorf("Expected default model, got %s", provider.Model())
	}

	resp, err := provider.Complete(context.Background(), Request{System: "judge", Prompt: "claim", MaxTokens: 100, JSON: true})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `{"stance":"support"}` {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensIn != 31 || resp.TokensOut != 7 {
		t.Errorf("Unexpected token usage: %d/%d", resp.TokensIn, resp.TokensOut)
	}
}

func TestGeminiProvider_MissingKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), model.LLMConfig{}, nil)
	if !errors.Is(err, ErrEmptyAPIKey) {
		t.Fatalf("Expected ErrEmptyAPIKey, got %v", err)
	}
}

func TestGeminiProvider_Complete_RateLimited(t *testing.T) {
	provider := newGeminiTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "quota", "status": "RESOURCE_EXHAUSTED"}}`))
	})

	_, err := provider.Complete(context.Background(), Request{Prompt: "claim"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !IsRetryable(err) {
		t.Errorf("Expected rate limit to be retryable, got %v", err)
	}
}

func TestGeminiProvider_Complete_NoCandidates(t *testing.T) {
	provider := newGeminiTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	})

	_, err := provider.Complete(context.Background(), Request{Prompt: "claim"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("Expected ErrEmptyResponse, got %v", err)
	}
}
