package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/pollyhq/blogsmith/services/providers"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultTextModel  = "gpt-4o"
	defaultImageModel = "dall-e-3"
)

// Adapter implements the Provider interface for OpenAI. It supports both
// text generation (chat completions) and image generation.
type Adapter struct {
	config     providers.ProviderConfig
	orgID      string
	httpClient *http.Client
}

// Option configures the adapter.
type Option func(*Adapter)

// WithOrgID sets the OpenAI organization header.
func WithOrgID(orgID string) Option {
	return func(a *Adapter) { a.orgID = orgID }
}

// New creates a new OpenAI adapter.
func New(config providers.ProviderConfig, opts ...Option) *Adapter {
	if config.Endpoint == "" {
		config.Endpoint = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	a := &Adapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "openai"
}

// Capabilities returns the supported capabilities.
func (a *Adapter) Capabilities() providers.CapabilitySet {
	return providers.NewCapabilitySet(providers.CapabilityText, providers.CapabilityImage)
}

// Generate dispatches on the requested capability.
func (a *Adapter) Generate(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResult, error) {
	if a.config.APIKey == "" {
		return nil, providers.NewProviderError(a.Name(), providers.CodeMissingCredential,
			"OpenAI API key not configured", 0, false, nil)
	}

	switch req.Capability {
	case providers.CapabilityText:
		return a.generateText(ctx, req)
	case providers.CapabilityImage:
		return a.generateImage(ctx, req)
	default:
		return nil, providers.NewProviderError(a.Name(), providers.CodeUnsupported,
			"unsupported capability "+string(req.Capability), 0, false, nil)
	}
}

func (a *Adapter) generateText(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResult, error) {
	model := req.Model
	if model == "" {
		model = defaultTextModel
	}

	body := chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.Text.MaxTokens > 0 {
		body.MaxTokens = &req.Text.MaxTokens
	}
	if req.Text.Temperature > 0 {
		body.Temperature = &req.Text.Temperature
	}

	respBody, status, latency, err := a.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, a.handleErrorResponse(status, respBody)
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
			"failed to unmarshal response", status, false, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
			"empty completion in response", status, false, nil)
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
		Latency: latency,
	}, nil
}

func (a *Adapter) generateImage(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResult, error) {
	model := req.Model
	if model == "" {
		model = defaultImageModel
	}
	size := req.Image.Size
	if size == "" {
		size = "1792x1024"
	}
	quality := req.Image.Quality
	if quality == "" {
		quality = "standard"
	}

	body := imageRequest{
		Model:   model,
		Prompt:  req.Prompt,
		Size:    size,
		Quality: quality,
		N:       1,
	}

	respBody, status, latency, err := a.post(ctx, "/images/generations", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, a.handleErrorResponse(status, respBody)
	}

	var resp imageResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
			"failed to unmarshal response", status, false, err)
	}
	if len(resp.Data) == 0 || (resp.Data[0].URL == "" && resp.Data[0].B64JSON == "") {
		return nil, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
			"no image in response", status, false, nil)
	}

	result := &providers.GenerationResult{
		Provider:      a.Name(),
		Model:         model,
		ImageURL:      resp.Data[0].URL,
		RevisedPrompt: resp.Data[0].RevisedPrompt,
		Latency:       latency,
	}
	if resp.Data[0].B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
		if err != nil {
			return nil, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
				"invalid base64 image payload", status, false, err)
		}
		result.ImageData = data
	}
	if result.RevisedPrompt == "" {
		result.RevisedPrompt = req.Prompt
	}
	return result, nil
}

// post sends a JSON request and returns the raw body, status and latency.
func (a *Adapter) post(ctx context.Context, path string, payload any) ([]byte, int, time.Duration, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, 0, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
			"failed to marshal request", 0, false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, 0, providers.NewProviderError(a.Name(), providers.CodeHTTP,
			"failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	if a.orgID != "" {
		httpReq.Header.Set("OpenAI-Organization", a.orgID)
	}

	start := time.Now()
	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, 0, 0, providers.NewProviderError(a.Name(), providers.CodeTimeout,
				"request timed out", 0, true, err)
		}
		return nil, 0, 0, providers.NewProviderError(a.Name(), providers.CodeHTTP,
			"HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, 0, 0, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
			"failed to read response", httpResp.StatusCode, false, err)
	}
	return respBody, httpResp.StatusCode, time.Since(start), nil
}

// handleErrorResponse maps OpenAI error responses to provider errors.
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

// OpenAI wire types.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
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

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	N       int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
