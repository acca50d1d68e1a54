package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pollyhq/blogsmith/services/providers"
)

func TestNewAdapter(t *testing.T) {
	adapter := New(providers.ProviderConfig{APIKey: "test-key"})

	if adapter == nil {
		t.Fatal("New() returned nil")
	}
	if adapter.Name() != "deepseek" {
		t.Errorf("Name() = %s, want deepseek", adapter.Name())
	}
	if adapter.config.Endpoint != defaultBaseURL {
		t.Errorf("Endpoint = %s, want %s", adapter.config.Endpoint, defaultBaseURL)
	}
	if !adapter.Capabilities().Has(providers.CapabilityText) {
		t.Error("text capability missing")
	}
	if adapter.Capabilities().Has(providers.CapabilityImage) {
		t.Error("deepseek must not declare image capability")
	}
}

func TestGenerateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "deepseek-chat" {
			t.Errorf("model = %s, want deepseek-chat", req.Model)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "cmpl-1",
			"model": "deepseek-chat",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "hello"}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
		})
	}))
	defer server.Close()

	adapter := New(providers.ProviderConfig{APIKey: "test-key", Endpoint: server.URL})

	result, err := adapter.Generate(context.Background(), &providers.GenerationRequest{
		Capability: providers.CapabilityText,
		Prompt:     "say hello",
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if result.Text != "hello" {
		t.Errorf("Text = %q, want hello", result.Text)
	}
	if result.Provider != "deepseek" {
		t.Errorf("Provider = %q, want deepseek", result.Provider)
	}
	if result.Usage.TotalTokens != 5 {
		t.Errorf("TotalTokens = %d, want 5", result.Usage.TotalTokens)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  string
		retryable bool
	}{
		{name: "auth failure", status: 401, body: `{"error":{"message":"bad key"}}`, wantCode: providers.CodeAuth},
		{name: "rate limited", status: 429, body: `{"error":{"message":"slow down"}}`, wantCode: providers.CodeRateLimit, retryable: true},
		{name: "server error", status: 500, body: `oops`, wantCode: providers.CodeHTTP, retryable: true},
		{name: "empty choices", status: 200, body: `{"choices":[]}`, wantCode: providers.CodeBadResponse},
		{name: "malformed body", status: 200, body: `{not json`, wantCode: providers.CodeBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			adapter := New(providers.ProviderConfig{APIKey: "k", Endpoint: server.URL})
			_, err := adapter.Generate(context.Background(), &providers.GenerationRequest{
				Capability: providers.CapabilityText,
				Prompt:     "x",
			})
			if err == nil {
				t.Fatal("expected error")
			}

			var provErr *providers.ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("error is %T, want *ProviderError", err)
			}
			if provErr.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", provErr.Code, tt.wantCode)
			}
			if provErr.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", provErr.Retryable, tt.retryable)
			}
		})
	}
}

func TestGenerateMissingKey(t *testing.T) {
	adapter := New(providers.ProviderConfig{})
	_, err := adapter.Generate(context.Background(), &providers.GenerationRequest{
		Capability: providers.CapabilityText,
		Prompt:     "x",
	})

	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) || provErr.Code != providers.CodeMissingCredential {
		t.Fatalf("expected missing_credential error, got %v", err)
	}
}

func TestGenerateRejectsImageRequests(t *testing.T) {
	adapter := New(providers.ProviderConfig{APIKey: "k"})
	_, err := adapter.Generate(context.Background(), &providers.GenerationRequest{
		Capability: providers.CapabilityImage,
		Prompt:     "a cat",
	})

	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) || provErr.Code != providers.CodeUnsupported {
		t.Fatalf("expected unsupported_capability error, got %v", err)
	}
}
