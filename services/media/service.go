package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pollyhq/blogsmith/internal/observability"
	"github.com/pollyhq/blogsmith/services/providers"
	"github.com/pollyhq/blogsmith/services/router"
)

// Generator dispatches generation requests to a working provider.
type Generator interface {
	Route(ctx context.Context, req *providers.GenerationRequest) (*router.Result, error)
}

// Options configures the media service.
type Options struct {
	// OutputDir is where generated images are written.
	OutputDir string

	// Size and Quality are defaults for requests that leave them empty.
	Size    string
	Quality string

	// Delay is the pause between batch items so provider rate limits are
	// not tripped.
	Delay time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger

	// Metrics may be nil.
	Metrics *observability.Metrics
}

// Service generates blog images through the provider router and saves them
// to disk.
type Service struct {
	generator Generator
	outputDir string
	size      string
	quality   string
	delay     time.Duration
	client    *http.Client
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewService creates a media service.
func NewService(generator Generator, opts Options) *Service {
	if opts.OutputDir == "" {
		opts.OutputDir = "output/images"
	}
	if opts.Size == "" {
		opts.Size = "1792x1024"
	}
	if opts.Quality == "" {
		opts.Quality = "standard"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		generator: generator,
		outputDir: opts.OutputDir,
		size:      opts.Size,
		quality:   opts.Quality,
		delay:     opts.Delay,
		client:    opts.HTTPClient,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// ImageRequest describes one image to generate.
type ImageRequest struct {
	Prompt  string `json:"prompt" validate:"required"`
	Style   string `json:"style,omitempty" validate:"omitempty,oneof=realistic illustration artistic technical"`
	Size    string `json:"size,omitempty" validate:"omitempty,oneof=1024x1024 1792x1024 1024x1792"`
	Quality string `json:"quality,omitempty" validate:"omitempty,oneof=standard hd"`

	// BlogContext, when set, is fed to a text provider to sharpen the
	// prompt before generation.
	BlogContext string `json:"blog_context,omitempty"`

	// Save writes the image to the output directory.
	Save bool `json:"save,omitempty"`
}

// Image is a generated image.
type Image struct {
	OriginalPrompt  string    `json:"original_prompt"`
	OptimizedPrompt string    `json:"optimized_prompt"`
	RevisedPrompt   string    `json:"revised_prompt,omitempty"`
	URL             string    `json:"image_url,omitempty"`
	LocalPath       string    `json:"local_path,omitempty"`
	Size            string    `json:"size"`
	Quality         string    `json:"quality"`
	Style           string    `json:"style"`
	Provider        string    `json:"provider"`
	GeneratedAt     time.Time `json:"generated_at"`
}

var styleKeywords = map[string]string{
	"realistic":    "photorealistic, high quality, detailed",
	"illustration": "digital illustration, artistic, stylized",
	"artistic":     "artistic, creative, expressive",
	"technical":    "technical diagram, clean, professional",
}

// GenerateImage optimizes the prompt, routes the generation and optionally
// saves the result.
func (s *Service) GenerateImage(ctx context.Context, req ImageRequest) (*Image, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if req.Style == "" {
		req.Style = "realistic"
	}
	if req.Size == "" {
		req.Size = s.size
	}
	if req.Quality == "" {
		req.Quality = s.quality
	}

	prompt := s.optimizePrompt(ctx, req.Prompt, req.Style, req.BlogContext)

	result, err := s.generator.Route(ctx, &providers.GenerationRequest{
		Capability: providers.CapabilityImage,
		Prompt:     prompt,
		Image:      providers.ImageOptions{Size: req.Size, Quality: req.Quality},
	})
	if err != nil {
		return nil, fmt.Errorf("generating image: %w", err)
	}

	img := &Image{
		OriginalPrompt:  req.Prompt,
		OptimizedPrompt: prompt,
		RevisedPrompt:   result.RevisedPrompt,
		URL:             result.ImageURL,
		Size:            req.Size,
		Quality:         req.Quality,
		Style:           req.Style,
		Provider:        result.Provider,
		GeneratedAt:     time.Now().UTC(),
	}

	if req.Save {
		path, err := s.saveImage(ctx, result, req.Prompt, req.Style)
		if err != nil {
			return nil, fmt.Errorf("saving image: %w", err)
		}
		img.LocalPath = path
	}

	s.logger.Info("image generated",
		zap.String("provider", result.Provider),
		zap.String("style", req.Style),
		zap.Bool("saved", req.Save))
	return img, nil
}

// BlogImageRequest describes an image tied to a specific post.
type BlogImageRequest struct {
	BlogTitle      string `json:"blog_title" validate:"required"`
	BlogContent    string `json:"blog_content,omitempty"`
	ImageType      string `json:"image_type,omitempty" validate:"omitempty,oneof=cover illustration diagram screenshot"`
	SectionContext string `json:"section_context,omitempty"`
	TargetMood     string `json:"target_mood,omitempty" validate:"omitempty,oneof=professional casual inspiring technical"`
	Save           bool   `json:"save,omitempty"`
}

// BlogImage is an image generated for a post, with placement metadata.
type BlogImage struct {
	Image
	BlogTitle       string `json:"blog_title"`
	ImageType       string `json:"image_type"`
	TargetMood      string `json:"target_mood"`
	UsageSuggestion string `json:"usage_suggestion"`
	AltText         string `json:"alt_text"`
}

var imageTypeStyles = map[string]string{
	"cover":        "artistic",
	"illustration": "illustration",
	"diagram":      "technical",
	"screenshot":   "realistic",
}

var usageSuggestions = map[string]string{
	"cover":        "use as the post cover, shown at the top of the article",
	"illustration": "insert next to the related paragraph with a short caption",
	"diagram":      "use to explain a concept, with an explanatory caption",
	"screenshot":   "use to show a concrete step, paired with the code example",
}

// GenerateBlogImage builds a type-specific prompt from the post and
// generates the image.
func (s *Service) GenerateBlogImage(ctx context.Context, req BlogImageRequest) (*BlogImage, error) {
	if req.BlogTitle == "" {
		return nil, fmt.Errorf("blog title is required")
	}
	if req.ImageType == "" {
		req.ImageType = "cover"
	}
	if req.TargetMood == "" {
		req.TargetMood = "professional"
	}

	style, ok := imageTypeStyles[req.ImageType]
	if !ok {
		style = "realistic"
	}

	blogContext := req.BlogTitle
	if req.BlogContent != "" {
		blogContext = req.BlogTitle + ": " + truncate(req.BlogContent, 500)
	}

	img, err := s.GenerateImage(ctx, ImageRequest{
		Prompt:      buildBlogImagePrompt(req),
		Style:       style,
		BlogContext: blogContext,
		Save:        req.Save,
	})
	if err != nil {
		return nil, err
	}

	suggestion, ok := usageSuggestions[req.ImageType]
	if !ok {
		suggestion = "place where the content calls for it"
	}
	return &BlogImage{
		Image:           *img,
		BlogTitle:       req.BlogTitle,
		ImageType:       req.ImageType,
		TargetMood:      req.TargetMood,
		UsageSuggestion: suggestion,
		AltText:         fmt.Sprintf("%s image for blog post: %s", capitalize(req.ImageType), req.BlogTitle),
	}, nil
}

// BatchItem is the outcome for one prompt in a batch.
type BatchItem struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
	Image  *Image `json:"image,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult summarizes a batch generation run.
type BatchResult struct {
	Total   int         `json:"total_count"`
	Success int         `json:"success_count"`
	Failed  int         `json:"failed_count"`
	Items   []BatchItem `json:"results"`
}

// BatchGenerate generates one image per prompt, pausing between items.
// A failed item does not abort the batch.
func (s *Service) BatchGenerate(ctx context.Context, prompts []string, style string) (*BatchResult, error) {
	result := &BatchResult{Total: len(prompts)}

	for i, prompt := range prompts {
		img, err := s.GenerateImage(ctx, ImageRequest{Prompt: prompt, Style: style, Save: true})
		item := BatchItem{Index: i + 1, Prompt: prompt}
		if err != nil {
			result.Failed++
			item.Error = err.Error()
			s.logger.Warn("batch item failed", zap.Int("index", i+1), zap.Error(err))
		} else {
			result.Success++
			item.Image = img
		}
		result.Items = append(result.Items, item)

		if i < len(prompts)-1 && s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}
	return result, nil
}

// optimizePrompt appends style keywords, and when blog context is available
// asks a text provider for a sharper prompt first. Prompt optimization is
// best effort; the original prompt is used when no text provider answers.
func (s *Service) optimizePrompt(ctx context.Context, prompt, style, blogContext string) string {
	enhancement, ok := styleKeywords[style]
	if !ok {
		enhancement = "high quality"
	}

	if blogContext != "" {
		blogContext = truncate(blogContext, 200)
		result, err := s.generator.Route(ctx, &providers.GenerationRequest{
			Capability: providers.CapabilityText,
			Prompt: fmt.Sprintf(
				"Rewrite this image generation prompt for a technical blog. Keep it in English, describe the scene clearly, match a %s style.\n\nPrompt: %s\nBlog context: %s\n\nRespond with the rewritten prompt only.",
				style, prompt, blogContext),
			Text: providers.TextOptions{Temperature: 0.5},
		})
		if err == nil && strings.TrimSpace(result.Text) != "" {
			return strings.TrimSpace(result.Text) + ", " + enhancement
		}
		s.logger.Debug("prompt optimization skipped", zap.Error(err))
	}
	return prompt + ", " + enhancement
}

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9 _-]`)

// saveImage writes inline image bytes, or downloads the result URL, into
// the output directory.
func (s *Service) saveImage(ctx context.Context, result *router.Result, prompt, style string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	safe := strings.TrimSpace(unsafeFilenameRe.ReplaceAllString(truncate(prompt, 30), ""))
	safe = strings.ReplaceAll(safe, " ", "_")
	filename := fmt.Sprintf("%s_%s_%s.png", time.Now().Format("20060102_150405"), safe, style)
	path := filepath.Join(s.outputDir, filename)

	data := result.ImageData
	if len(data) == 0 {
		if result.ImageURL == "" {
			return "", fmt.Errorf("provider returned neither image data nor a url")
		}
		downloaded, err := s.download(ctx, result.ImageURL)
		if err != nil {
			return "", err
		}
		data = downloaded
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing image file: %w", err)
	}
	s.metrics.ImageSaved()
	return path, nil
}

func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading image: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// truncate cuts s to at most n bytes, backing up so a multi-byte rune is
// never split.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func buildBlogImagePrompt(req BlogImageRequest) string {
	var base string
	switch req.ImageType {
	case "cover":
		base = fmt.Sprintf("Blog cover image for %q, professional and engaging", req.BlogTitle)
	case "illustration":
		base = fmt.Sprintf("Technical illustration for blog post about %s", req.BlogTitle)
	case "diagram":
		base = fmt.Sprintf("Technical diagram or flowchart related to %s", req.BlogTitle)
	case "screenshot":
		base = fmt.Sprintf("Clean interface screenshot or mockup for %s", req.BlogTitle)
	default:
		base = fmt.Sprintf("Image for %s", req.BlogTitle)
	}

	if req.SectionContext != "" {
		base += ", specifically about " + req.SectionContext
	}

	moods := map[string]string{
		"professional": "professional, clean, modern",
		"casual":       "friendly, approachable, warm",
		"inspiring":    "inspiring, motivational, uplifting",
		"technical":    "technical, precise, detailed",
	}
	mood, ok := moods[req.TargetMood]
	if !ok {
		mood = moods["professional"]
	}
	return base + ", " + mood
}
