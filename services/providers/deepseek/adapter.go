package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/pollyhq/blogsmith/services/providers"
)

const (
	defaultBaseURL = "https://api.deepseek.com/v1"
	defaultModel   = "deepseek-chat"
)

// Adapter implements the Provider interface for DeepSeek. DeepSeek exposes an
// OpenAI-compatible chat completions API and only supports text generation.
type Adapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// New creates a new DeepSeek adapter.
func New(config providers.ProviderConfig) *Adapter {
	if config.Endpoint == "" {
		config.Endpoint = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &Adapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "deepseek"
}

// Capabilities returns the supported capabilities.
func (a *Adapter) Capabilities() providers.CapabilitySet {
	return providers.NewCapabilitySet(providers.CapabilityText)
}

// Generate performs a chat completion request.
func (a *Adapter) Generate(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResult, error) {
	if req.Capability != providers.CapabilityText {
		return nil, providers.NewProviderError(a.Name(), providers.CodeUnsupported,
			"deepseek supports text generation only", 0, false, nil)
	}
	if a.config.APIKey == "" {
		return nil, providers.NewProviderError(a.Name(), providers.CodeMissingCredential,
			"DeepSeek API key not configured", 0, false, nil)
	}

	model := req.Model
	if model == "" {
		model = defaultModel
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.Text.MaxTokens,
		Temperature: req.Text.Temperature,
		Stream:      false,
	})
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
			"failed to marshal request", 0, false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), providers.CodeHTTP,
			"failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	start := time.Now()
	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, providers.NewProviderError(a.Name(), providers.CodeTimeout,
				"request timed out", 0, true, err)
		}
		return nil, providers.NewProviderError(a.Name(), providers.CodeHTTP,
			"HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
			"failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
			"failed to unmarshal response", httpResp.StatusCode, false, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
			"empty completion in response", httpResp.StatusCode, false, nil)
	}

	return &providers.GenerationResult{
		Provider: a.Name(),
		Model:    resp.Model,
		Text:     resp.Choices[0].Message.Content,
		Usage: providers.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Latency: time.Since(start),
	}, nil
}

// handleErrorResponse maps DeepSeek error responses to provider errors.
func (a *Adapter) handleErrorResponse(statusCode int, body []byte) error {
	var errResp errorResponse
	_ = json.Unmarshal(body, &errResp)

	message := errResp.Error.Message
	if message == "" {
		message = string(body)
	}

	code := providers.CodeHTTP
	retryable := statusCode >= 500
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		code = providers.CodeAuth
	case statusCode == http.StatusTooManyRequests:
		code = providers.CodeRateLimit
		retryable = true
	}

	return providers.NewProviderError(a.Name(), code, message, statusCode, retryable, nil)
}

// DeepSeek wire types (OpenAI-compatible).

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
