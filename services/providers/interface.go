package providers

import (
	"context"
	"fmt"
	"time"
)

// Capability is a category of generation work a provider may support.
type Capability string

const (
	// CapabilityText covers chat/completion style text generation.
	CapabilityText Capability = "text"

	// CapabilityImage covers image generation.
	CapabilityImage Capability = "image"
)

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	return c == CapabilityText || c == CapabilityImage
}

// CapabilitySet is the set of capabilities a provider declares.
type CapabilitySet map[Capability]bool

// NewCapabilitySet builds a set from a list of capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return set
}

// Has reports whether the set contains the capability.
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// Provider represents one configured generation backend.
type Provider interface {
	// Name returns the unique provider name (e.g., "deepseek", "openai", "azure")
	Name() string

	// Capabilities returns the capabilities this provider supports
	Capabilities() CapabilitySet

	// Generate performs one generation call. The request's capability must be
	// in the provider's capability set; implementations return a ProviderError
	// for anything that goes wrong on the wire.
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)
}

// GenerationRequest is a unified request for text or image generation.
type GenerationRequest struct {
	// Capability selects which kind of generation is wanted
	Capability Capability `json:"capability"`

	// Prompt is the rendered prompt text
	Prompt string `json:"prompt"`

	// Model optionally overrides the provider's default model
	Model string `json:"model,omitempty"`

	// Text holds text-specific options; ignored for image requests
	Text TextOptions `json:"text,omitempty"`

	// Image holds image-specific options; ignored for text requests
	Image ImageOptions `json:"image,omitempty"`

	// Metadata for tracking and logging
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TextOptions are the options for text generation.
type TextOptions struct {
	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`
}

// ImageOptions are the options for image generation.
type ImageOptions struct {
	// Size is the image dimensions (e.g., "1792x1024")
	Size string `json:"size,omitempty"`

	// Quality is "standard" or "hd"
	Quality string `json:"quality,omitempty"`
}

// Validate checks the request before any provider is attempted.
func (r *GenerationRequest) Validate() error {
	if !r.Capability.Valid() {
		return fmt.Errorf("unknown capability %q", r.Capability)
	}
	if r.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	return nil
}

// GenerationResult is the unified result of one successful generation call.
// It is constructed once by the provider and not mutated afterwards.
type GenerationResult struct {
	// Provider that produced the result
	Provider string `json:"provider"`

	// Model that actually served the request
	Model string `json:"model,omitempty"`

	// Text is the generated text (text capability)
	Text string `json:"text,omitempty"`

	// ImageURL references the generated image (image capability)
	ImageURL string `json:"image_url,omitempty"`

	// ImageData holds inline image bytes when the provider returns them
	ImageData []byte `json:"-"`

	// RevisedPrompt is the provider's rewritten image prompt, when given
	RevisedPrompt string `json:"revised_prompt,omitempty"`

	// Usage statistics (text capability)
	Usage Usage `json:"usage"`

	// Latency of the provider call
	Latency time.Duration `json:"latency"`
}

// Usage represents token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Error codes shared by the provider adapters.
const (
	CodeMissingCredential = "missing_credential"
	CodeAuth              = "auth_error"
	CodeRateLimit         = "rate_limited"
	CodeTimeout           = "timeout"
	CodeBadResponse       = "bad_response"
	CodeHTTP              = "http_error"
	CodeUnsupported       = "unsupported_capability"
)

// ProviderError represents an error from a provider.
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if another attempt could succeed
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Message)
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if provErr, ok := err.(*ProviderError); ok {
		return provErr.Retryable
	}
	return false
}
