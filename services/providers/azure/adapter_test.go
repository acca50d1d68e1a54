package azure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollyhq/blogsmith/services/providers"
)

func TestAdapterCapabilities(t *testing.T) {
	adapter := New(providers.ProviderConfig{APIKey: "k", Endpoint: "https://res.openai.azure.com"}, "dall-e-3")

	assert.Equal(t, "azure", adapter.Name())
	assert.True(t, adapter.Capabilities().Has(providers.CapabilityText))
	assert.True(t, adapter.Capabilities().Has(providers.CapabilityImage))
}

func TestGenerateImageUsesDeploymentURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/openai/deployments/dall-e-3/images/generations", r.URL.Path)
		require.Equal(t, apiVersion, r.URL.Query().Get("api-version"))
		require.Equal(t, "secret", r.Header.Get("api-key"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"url": "https://img.example/azure.png", "revised_prompt": "refined"},
			},
		})
	}))
	defer server.Close()

	adapter := New(providers.ProviderConfig{APIKey: "secret", Endpoint: server.URL}, "dall-e-3")

	result, err := adapter.Generate(context.Background(), &providers.GenerationRequest{
		Capability: providers.CapabilityImage,
		Prompt:     "a lake at dawn",
		Image:      providers.ImageOptions{Size: "1024x1024", Quality: "hd"},
	})

	require.NoError(t, err)
	assert.Equal(t, "azure", result.Provider)
	assert.Equal(t, "https://img.example/azure.png", result.ImageURL)
	assert.Equal(t, "refined", result.RevisedPrompt)
}

func TestGenerateTextUsesModelOverrideAsDeployment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/openai/deployments/gpt-4o-eu/chat/completions", r.URL.Path)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "done"}},
			},
			"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	defer server.Close()

	adapter := New(providers.ProviderConfig{APIKey: "secret", Endpoint: server.URL}, "gpt-4o")

	result, err := adapter.Generate(context.Background(), &providers.GenerationRequest{
		Capability: providers.CapabilityText,
		Prompt:     "hi",
		Model:      "gpt-4o-eu",
	})

	require.NoError(t, err)
	assert.Equal(t, "done", result.Text)
	assert.Equal(t, "gpt-4o-eu", result.Model)
}

func TestGenerateMissingConfiguration(t *testing.T) {
	adapter := New(providers.ProviderConfig{APIKey: "k"}, "dall-e-3") // no endpoint

	_, err := adapter.Generate(context.Background(), &providers.GenerationRequest{
		Capability: providers.CapabilityImage,
		Prompt:     "x",
	})

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, providers.CodeMissingCredential, provErr.Code)
}

func TestGenerateErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"throttled","code":"429"}}`))
	}))
	defer server.Close()

	adapter := New(providers.ProviderConfig{APIKey: "k", Endpoint: server.URL}, "dall-e-3")

	_, err := adapter.Generate(context.Background(), &providers.GenerationRequest{
		Capability: providers.CapabilityImage,
		Prompt:     "x",
	})

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, providers.CodeRateLimit, provErr.Code)
	assert.True(t, provErr.Retryable)
}
