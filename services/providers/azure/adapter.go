package azure

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pollyhq/blogsmith/services/providers"
)

const apiVersion = "2024-02-15-preview"

// Adapter implements the Provider interface for Azure OpenAI. Azure scopes
// every call to a deployment, so the adapter needs the resource endpoint and
// a deployment name in addition to the API key.
type Adapter struct {
	config     providers.ProviderConfig
	deployment string
	httpClient *http.Client
}

// New creates a new Azure OpenAI adapter. deployment names the Azure
// deployment to call (e.g., "dall-e-3" or a chat deployment).
func New(config providers.ProviderConfig, deployment string) *Adapter {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")
	return &Adapter{
		config:     config,
		deployment: deployment,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "azure"
}

// Capabilities returns the supported capabilities.
func (a *Adapter) Capabilities() providers.CapabilitySet {
	return providers.NewCapabilitySet(providers.CapabilityText, providers.CapabilityImage)
}

// Generate dispatches on the requested capability.
func (a *Adapter) Generate(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResult, error) {
	if a.config.APIKey == "" || a.config.Endpoint == "" {
		return nil, providers.NewProviderError(a.Name(), providers.CodeMissingCredential,
			"Azure OpenAI key or endpoint not configured", 0, false, nil)
	}

	deployment := a.deployment
	if req.Model != "" {
		deployment = req.Model
	}

	switch req.Capability {
	case providers.CapabilityText:
		return a.generateText(ctx, deployment, req)
	case providers.CapabilityImage:
		return a.generateImage(ctx, deployment, req)
	default:
		return nil, providers.NewProviderError(a.Name(), providers.CodeUnsupported,
			"unsupported capability "+string(req.Capability), 0, false, nil)
	}
}

func (a *Adapter) generateText(ctx context.Context, deployment string, req *providers.GenerationRequest) (*providers.GenerationResult, error) {
	body := chatRequest{
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.Text.MaxTokens > 0 {
		body.MaxTokens = &req.Text.MaxTokens
	}
	if req.Text.Temperature > 0 {
		body.Temperature = &req.Text.Temperature
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		a.config.Endpoint, deployment, apiVersion)

	respBody, status, latency, err := a.post(ctx, url, body)
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
		Model:    deployment,
		Text:     resp.Choices[0].Message.Content,
		Usage: providers.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Latency: latency,
	}, nil
}

func (a *Adapter) generateImage(ctx context.Context, deployment string, req *providers.GenerationRequest) (*providers.GenerationResult, error) {
	size := req.Image.Size
	if size == "" {
		size = "1792x1024"
	}
	quality := req.Image.Quality
	if quality == "" {
		quality = "standard"
	}

	body := imageRequest{
		Prompt:  req.Prompt,
		Size:    size,
		Quality: quality,
		N:       1,
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/images/generations?api-version=%s",
		a.config.Endpoint, deployment, apiVersion)

	respBody, status, latency, err := a.post(ctx, url, body)
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
		Model:         deployment,
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

func (a *Adapter) post(ctx context.Context, url string, payload any) ([]byte, int, time.Duration, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, 0, providers.NewProviderError(a.Name(), providers.CodeBadResponse,
			"failed to marshal request", 0, false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, 0, providers.NewProviderError(a.Name(), providers.CodeHTTP,
			"failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", a.config.APIKey)

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

// handleErrorResponse maps Azure OpenAI error responses to provider errors.
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

// Azure OpenAI wire types (OpenAI-compatible bodies, deployment-scoped URLs).

type chatRequest struct {
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
		Code    string `json:"code"`
	} `json:"error"`
}
