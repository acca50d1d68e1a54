package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pollyhq/blogsmith/services/media"
	"github.com/pollyhq/blogsmith/services/providers"
	"github.com/pollyhq/blogsmith/services/router"
)

type stubMediaService struct {
	image     *media.Image
	blogImage *media.BlogImage
	batch     *media.BatchResult
	err       error
}

func (s *stubMediaService) GenerateImage(context.Context, media.ImageRequest) (*media.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.image, nil
}

func (s *stubMediaService) GenerateBlogImage(context.Context, media.BlogImageRequest) (*media.BlogImage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.blogImage, nil
}

func (s *stubMediaService) BatchGenerate(context.Context, []string, string) (*media.BatchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.batch, nil
}

func TestHandleGenerateImage(t *testing.T) {
	svc := &stubMediaService{image: &media.Image{URL: "https://example.com/i.png", Provider: "openai"}}
	h := NewMediaHandler(svc, zap.NewNop())

	w := postJSON(t, h.HandleGenerateImage, `{"prompt":"a gopher"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data media.Image `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "openai", resp.Data.Provider)
}

func TestHandleGenerateImageValidation(t *testing.T) {
	h := NewMediaHandler(&stubMediaService{}, zap.NewNop())

	w := postJSON(t, h.HandleGenerateImage, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGenerateImageRejectsUnknownStyle(t *testing.T) {
	h := NewMediaHandler(&stubMediaService{}, zap.NewNop())

	w := postJSON(t, h.HandleGenerateImage, `{"prompt":"a gopher","style":"cubist"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Validation failed", resp.Message)
	assert.Contains(t, resp.Details["Style"], "must be one of")
}

func TestHandleGenerateImageExhausted(t *testing.T) {
	svc := &stubMediaService{err: &router.ExhaustedError{Capability: providers.CapabilityImage}}
	h := NewMediaHandler(svc, zap.NewNop())

	w := postJSON(t, h.HandleGenerateImage, `{"prompt":"a gopher"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleGenerateBlogImage(t *testing.T) {
	svc := &stubMediaService{blogImage: &media.BlogImage{ImageType: "cover", AltText: "Cover image for blog post: T"}}
	h := NewMediaHandler(svc, zap.NewNop())

	w := postJSON(t, h.HandleGenerateBlogImage, `{"blog_title":"T"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, h.HandleGenerateBlogImage, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleBatchGenerate(t *testing.T) {
	svc := &stubMediaService{batch: &media.BatchResult{Total: 2, Success: 2}}
	h := NewMediaHandler(svc, zap.NewNop())

	w := postJSON(t, h.HandleBatchGenerate, `{"prompts":["a","b"]}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, h.HandleBatchGenerate, `{"prompts":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
