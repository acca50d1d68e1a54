package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/pollyhq/blogsmith/services/site"
	"github.com/pollyhq/blogsmith/utils"
)

// SiteService reads and builds the blog site.
type SiteService interface {
	ListPosts() ([]site.Post, error)
	Categories() ([]string, error)
	Tags() ([]string, error)
	SiteStats() (*site.Stats, error)
	ValidateContent(content string) site.ValidationResult
	Build(ctx context.Context) (*site.BuildResult, error)
}

// SiteHandler handles site management HTTP requests
type SiteHandler struct {
	site   SiteService
	logger *zap.Logger
}

// NewSiteHandler creates a new SiteHandler
func NewSiteHandler(siteSvc SiteService, logger *zap.Logger) *SiteHandler {
	return &SiteHandler{site: siteSvc, logger: logger}
}

// HandleListPosts handles GET /api/v1/site/posts
func (h *SiteHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.site.ListPosts()
	if err != nil {
		h.logger.Error("listing posts failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "could not list posts")
		return
	}
	_ = utils.WriteOK(w, map[string]interface{}{"posts": posts, "count": len(posts)})
}

// HandleTaxonomies handles GET /api/v1/site/taxonomies
func (h *SiteHandler) HandleTaxonomies(w http.ResponseWriter, r *http.Request) {
	categories, err := h.site.Categories()
	if err != nil {
		_ = utils.WriteInternalServerError(w, "could not read categories")
		return
	}
	tags, err := h.site.Tags()
	if err != nil {
		_ = utils.WriteInternalServerError(w, "could not read tags")
		return
	}
	_ = utils.WriteOK(w, map[string]interface{}{"categories": categories, "tags": tags})
}

// HandleStats handles GET /api/v1/site/stats
func (h *SiteHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.site.SiteStats()
	if err != nil {
		h.logger.Error("site stats failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "could not compute site stats")
		return
	}
	_ = utils.WriteOK(w, stats)
}

type validateRequest struct {
	Content string `json:"content" validate:"required"`
}

// HandleValidate handles POST /api/v1/site/validate
func (h *SiteHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}
	_ = utils.WriteOK(w, h.site.ValidateContent(req.Content))
}

// HandleBuild handles POST /api/v1/site/build
func (h *SiteHandler) HandleBuild(w http.ResponseWriter, r *http.Request) {
	result, err := h.site.Build(r.Context())
	if err != nil {
		h.logger.Error("site build failed", zap.Error(err))
		details := map[string]interface{}{}
		if result != nil {
			details["stderr"] = result.Stderr
		}
		_ = utils.WriteJSON(w, http.StatusUnprocessableEntity, utils.ErrorResponse{
			Error:   "build_failed",
			Message: "zola build reported errors",
			Details: details,
		})
		return
	}
	_ = utils.WriteOK(w, result)
}
