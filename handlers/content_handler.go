package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/pollyhq/blogsmith/services/content"
	"github.com/pollyhq/blogsmith/services/site"
	"github.com/pollyhq/blogsmith/utils"
)

// ContentService generates and reworks blog content.
type ContentService interface {
	GeneratePost(ctx context.Context, req content.PostRequest) (*content.PostDraft, error)
	GenerateOutline(ctx context.Context, topic, depth string) (*content.Outline, error)
	Optimize(ctx context.Context, body, optimizationType string, keywords []string) (*content.Optimization, error)
	Summarize(ctx context.Context, text string, maxLength int) (string, error)
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
	AnalyzePerformance(ctx context.Context, body string) *content.Analysis
}

// SiteWriter persists posts to the blog site.
type SiteWriter interface {
	SavePost(section string, fm site.Frontmatter, body string) (string, error)
}

// ContentHandler handles content generation HTTP requests
type ContentHandler struct {
	content ContentService
	site    SiteWriter
	logger  *zap.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(contentSvc ContentService, siteSvc SiteWriter, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{content: contentSvc, site: siteSvc, logger: logger}
}

type generatePostRequest struct {
	Topic        string   `json:"topic" validate:"required"`
	Outline      string   `json:"outline,omitempty"`
	Style        string   `json:"style,omitempty" validate:"omitempty,oneof=professional casual academic"`
	TargetLength string   `json:"target_length,omitempty" validate:"omitempty,oneof=short medium long"`
	IncludeCode  bool     `json:"include_code,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`

	// Save writes the generated post into the site content tree.
	Save     bool     `json:"save,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type generatePostResponse struct {
	*content.PostDraft
	ImagePositions []content.ImagePosition `json:"image_positions"`
	SavedPath      string                  `json:"saved_path,omitempty"`
}

// HandleGeneratePost handles POST /api/v1/content/posts
func (h *ContentHandler) HandleGeneratePost(w http.ResponseWriter, r *http.Request) {
	var req generatePostRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	draft, err := h.content.GeneratePost(r.Context(), content.PostRequest{
		Topic:        req.Topic,
		Outline:      req.Outline,
		Style:        req.Style,
		TargetLength: req.TargetLength,
		IncludeCode:  req.IncludeCode,
		Keywords:     req.Keywords,
	})
	if err != nil {
		h.logger.Error("post generation failed", zap.String("topic", req.Topic), zap.Error(err))
		writeRouteError(w, err)
		return
	}

	resp := generatePostResponse{
		PostDraft:      draft,
		ImagePositions: content.SuggestImagePositions(draft.Content),
	}

	if req.Save {
		category := req.Category
		if category == "" {
			category = "general"
		}
		fm := site.NewFrontmatter(draft.Title, category, draft.Summary, req.Tags)
		path, err := h.site.SavePost("blog", fm, draft.Content)
		if err != nil {
			h.logger.Error("saving post failed", zap.String("title", draft.Title), zap.Error(err))
			_ = utils.WriteInternalServerError(w, "post generated but could not be saved")
			return
		}
		resp.SavedPath = path
	}

	_ = utils.WriteCreated(w, resp)
}

type outlineRequest struct {
	Topic string `json:"topic" validate:"required"`
	Depth string `json:"depth,omitempty" validate:"omitempty,oneof=shallow medium deep"`
}

// HandleGenerateOutline handles POST /api/v1/content/outline
func (h *ContentHandler) HandleGenerateOutline(w http.ResponseWriter, r *http.Request) {
	var req outlineRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	outline, err := h.content.GenerateOutline(r.Context(), req.Topic, req.Depth)
	if err != nil {
		h.logger.Error("outline generation failed", zap.String("topic", req.Topic), zap.Error(err))
		writeRouteError(w, err)
		return
	}
	_ = utils.WriteOK(w, outline)
}

type optimizeRequest struct {
	Content          string   `json:"content" validate:"required"`
	OptimizationType string   `json:"optimization_type,omitempty" validate:"omitempty,oneof=seo readability engagement"`
	Keywords         []string `json:"keywords,omitempty"`
}

// HandleOptimize handles POST /api/v1/content/optimize
func (h *ContentHandler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	optimization, err := h.content.Optimize(r.Context(), req.Content, req.OptimizationType, req.Keywords)
	if err != nil {
		h.logger.Error("optimization failed", zap.Error(err))
		writeRouteError(w, err)
		return
	}
	_ = utils.WriteOK(w, optimization)
}

type summarizeRequest struct {
	Text      string `json:"text" validate:"required"`
	MaxLength int    `json:"max_length,omitempty" validate:"omitempty,gt=0"`
}

// HandleSummarize handles POST /api/v1/content/summarize
func (h *ContentHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	summary, err := h.content.Summarize(r.Context(), req.Text, req.MaxLength)
	if err != nil {
		writeRouteError(w, err)
		return
	}
	_ = utils.WriteOK(w, map[string]string{"summary": summary})
}

type translateRequest struct {
	Text           string `json:"text" validate:"required"`
	TargetLanguage string `json:"target_language" validate:"required"`
}

// HandleTranslate handles POST /api/v1/content/translate
func (h *ContentHandler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	translated, err := h.content.Translate(r.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		writeRouteError(w, err)
		return
	}
	_ = utils.WriteOK(w, map[string]string{"translation": translated})
}

type analyzeRequest struct {
	Content string `json:"content" validate:"required"`
}

// HandleAnalyze handles POST /api/v1/content/analyze
func (h *ContentHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	_ = utils.WriteOK(w, h.content.AnalyzePerformance(r.Context(), req.Content))
}
