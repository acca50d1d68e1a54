package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/pollyhq/blogsmith/services/media"
	"github.com/pollyhq/blogsmith/utils"
)

// MediaService generates blog images.
type MediaService interface {
	GenerateImage(ctx context.Context, req media.ImageRequest) (*media.Image, error)
	GenerateBlogImage(ctx context.Context, req media.BlogImageRequest) (*media.BlogImage, error)
	BatchGenerate(ctx context.Context, prompts []string, style string) (*media.BatchResult, error)
}

// MediaHandler handles image generation HTTP requests
type MediaHandler struct {
	media  MediaService
	logger *zap.Logger
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(mediaSvc MediaService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{media: mediaSvc, logger: logger}
}

// HandleGenerateImage handles POST /api/v1/media/images
func (h *MediaHandler) HandleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req media.ImageRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	img, err := h.media.GenerateImage(r.Context(), req)
	if err != nil {
		h.logger.Error("image generation failed", zap.Error(err))
		writeRouteError(w, err)
		return
	}
	_ = utils.WriteCreated(w, img)
}

// HandleGenerateBlogImage handles POST /api/v1/media/blog-images
func (h *MediaHandler) HandleGenerateBlogImage(w http.ResponseWriter, r *http.Request) {
	var req media.BlogImageRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	img, err := h.media.GenerateBlogImage(r.Context(), req)
	if err != nil {
		h.logger.Error("blog image generation failed", zap.String("title", req.BlogTitle), zap.Error(err))
		writeRouteError(w, err)
		return
	}
	_ = utils.WriteCreated(w, img)
}

type batchImageRequest struct {
	Prompts []string `json:"prompts" validate:"required,min=1,dive,required"`
	Style   string   `json:"style,omitempty" validate:"omitempty,oneof=realistic illustration artistic technical"`
}

// HandleBatchGenerate handles POST /api/v1/media/images/batch
func (h *MediaHandler) HandleBatchGenerate(w http.ResponseWriter, r *http.Request) {
	var req batchImageRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := h.media.BatchGenerate(r.Context(), req.Prompts, req.Style)
	if err != nil {
		// A cancelled batch still reports the items it completed.
		h.logger.Warn("batch generation interrupted", zap.Error(err))
		writeRouteError(w, err)
		return
	}
	_ = utils.WriteOK(w, result)
}
