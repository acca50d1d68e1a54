package content

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pollyhq/blogsmith/services/providers"
	"github.com/pollyhq/blogsmith/services/router"
)

// Generator dispatches generation requests to a working provider.
type Generator interface {
	Route(ctx context.Context, req *providers.GenerationRequest) (*router.Result, error)
}

// Service produces blog content through the provider router.
type Service struct {
	generator Generator
	logger    *zap.Logger
}

// NewService creates a content service.
func NewService(generator Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{generator: generator, logger: logger}
}

// PostRequest describes the post to generate.
type PostRequest struct {
	Topic        string   `json:"topic"`
	Outline      string   `json:"outline,omitempty"`
	Style        string   `json:"style,omitempty"`         // professional, casual, academic
	TargetLength string   `json:"target_length,omitempty"` // short, medium, long
	IncludeCode  bool     `json:"include_code,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
}

// PostDraft is a generated post before it is saved to the site.
type PostDraft struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Content     string `json:"content"`
	ReadingTime int    `json:"reading_time"`
	Provider    string `json:"provider"`
}

// GeneratePost renders the post prompt, routes it and parses the draft.
func (s *Service) GeneratePost(ctx context.Context, req PostRequest) (*PostDraft, error) {
	if req.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	result, err := s.generator.Route(ctx, &providers.GenerationRequest{
		Capability: providers.CapabilityText,
		Prompt:     buildPostPrompt(req),
		Text:       providers.TextOptions{MaxTokens: 4000, Temperature: 0.7},
	})
	if err != nil {
		return nil, fmt.Errorf("generating post: %w", err)
	}

	draft := parsePostResponse(result.Text)
	if draft.Title == "" {
		draft.Title = req.Topic
	}
	draft.ReadingTime = EstimateReadingTime(draft.Content)
	draft.Provider = result.Provider

	s.logger.Info("post generated",
		zap.String("topic", req.Topic),
		zap.String("provider", result.Provider),
		zap.Int("reading_time", draft.ReadingTime))
	return draft, nil
}

// OutlineSection is one chapter of a generated outline.
type OutlineSection struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Subsections []string `json:"subsections"`
}

// Outline is a generated post outline.
type Outline struct {
	Structure       []OutlineSection `json:"structure"`
	EstimatedLength string           `json:"estimated_length"`
	KeyPoints       []string         `json:"key_points"`
	Resources       []string         `json:"resources"`
	Provider        string           `json:"provider"`
}

// GenerateOutline produces an outline for a topic. depth is shallow, medium
// or deep.
func (s *Service) GenerateOutline(ctx context.Context, topic, depth string) (*Outline, error) {
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	result, err := s.generator.Route(ctx, &providers.GenerationRequest{
		Capability: providers.CapabilityText,
		Prompt:     buildOutlinePrompt(topic, depth),
		Text:       providers.TextOptions{MaxTokens: 2000, Temperature: 0.7},
	})
	if err != nil {
		return nil, fmt.Errorf("generating outline: %w", err)
	}

	outline := parseOutlineResponse(result.Text)
	outline.Provider = result.Provider
	return outline, nil
}

// Optimization is the result of a content optimization pass.
type Optimization struct {
	Content          string   `json:"content"`
	Improvements     []string `json:"improvements"`
	SEOScore         int      `json:"seo_score"`
	ReadabilityScore int      `json:"readability_score"`
	Provider         string   `json:"provider"`
}

// Optimize rewrites content for a goal: seo, readability or engagement.
func (s *Service) Optimize(ctx context.Context, content, optimizationType string, keywords []string) (*Optimization, error) {
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}

	result, err := s.generator.Route(ctx, &providers.GenerationRequest{
		Capability: providers.CapabilityText,
		Prompt:     buildOptimizationPrompt(content, optimizationType, keywords),
		Text:       providers.TextOptions{MaxTokens: 4000, Temperature: 0.5},
	})
	if err != nil {
		return nil, fmt.Errorf("optimizing content: %w", err)
	}

	optimization := parseOptimizationResponse(result.Text)
	optimization.Provider = result.Provider
	return optimization, nil
}

// Summarize condenses text to at most maxLength words.
func (s *Service) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = 200
	}
	result, err := s.generator.Route(ctx, &providers.GenerationRequest{
		Capability: providers.CapabilityText,
		Prompt:     fmt.Sprintf("Summarize the following text in at most %d words, keeping the key points:\n\n%s", maxLength, text),
		Text:       providers.TextOptions{Temperature: 0.3},
	})
	if err != nil {
		return "", fmt.Errorf("summarizing: %w", err)
	}
	return result.Text, nil
}

// Translate renders the text in the target language, preserving tone.
func (s *Service) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	result, err := s.generator.Route(ctx, &providers.GenerationRequest{
		Capability: providers.CapabilityText,
		Prompt:     fmt.Sprintf("Translate the following text into %s, preserving its meaning and style:\n\n%s", targetLanguage, text),
		Text:       providers.TextOptions{Temperature: 0.3},
	})
	if err != nil {
		return "", fmt.Errorf("translating: %w", err)
	}
	return result.Text, nil
}

// ImagePosition is a suggestion for where an image would help the post.
type ImagePosition struct {
	Position   string `json:"position"`
	Title      string `json:"title"`
	Suggestion string `json:"suggestion"`
	ImageType  string `json:"image_type"`
	Priority   string `json:"priority"`
}

var headerRe = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// SuggestImagePositions proposes a cover slot plus one illustration after
// each second-level heading.
func SuggestImagePositions(content string) []ImagePosition {
	suggestions := []ImagePosition{{
		Position:   "cover",
		Title:      "cover image",
		Suggestion: "insert an eye-catching cover image at the top of the post",
		ImageType:  "cover",
		Priority:   "high",
	}}

	section := 0
	for _, match := range headerRe.FindAllStringSubmatch(content, -1) {
		if match[1] != "##" {
			continue
		}
		section++
		title := strings.TrimSpace(match[2])
		suggestions = append(suggestions, ImagePosition{
			Position:   fmt.Sprintf("after_header_%d", section),
			Title:      title,
			Suggestion: fmt.Sprintf("insert a related image after the %q section", title),
			ImageType:  "illustration",
			Priority:   "medium",
		})
	}
	return suggestions
}

var markdownMarksRe = regexp.MustCompile("[#*`\\[\\]()]")

var cjkRanges = []*unicode.RangeTable{unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul}

// EstimateReadingTime estimates minutes to read, at 200 words per minute,
// never less than one minute. CJK script has no word spacing, so each CJK
// rune counts as a word of its own.
func EstimateReadingTime(content string) int {
	text := markdownMarksRe.ReplaceAllString(content, "")

	words := 0
	for _, field := range strings.Fields(text) {
		cjk := 0
		for _, r := range field {
			if unicode.IsOneOf(cjkRanges, r) {
				cjk++
			}
		}
		words += cjk
		if cjk == 0 {
			words++
		}
	}

	minutes := words / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Analysis is a content performance report.
type Analysis struct {
	WordCount           int      `json:"word_count"`
	ReadingTime         int      `json:"reading_time"`
	SEOScore            int      `json:"seo_score"`
	ReadabilityScore    int      `json:"readability_score"`
	EngagementPotential int      `json:"engagement_potential"`
	Suggestions         []string `json:"suggestions"`
}

// AnalyzePerformance scores content via the router, degrading to a baseline
// report when no provider answers.
func (s *Service) AnalyzePerformance(ctx context.Context, content string) *Analysis {
	analysis := &Analysis{
		WordCount:           len(strings.Fields(content)),
		ReadingTime:         EstimateReadingTime(content),
		SEOScore:            7,
		ReadabilityScore:    7,
		EngagementPotential: 7,
		Suggestions:         []string{"add more subheadings", "consider code examples", "add supporting images"},
	}

	result, err := s.generator.Route(ctx, &providers.GenerationRequest{
		Capability: providers.CapabilityText,
		Prompt:     buildAnalysisPrompt(content),
		Text:       providers.TextOptions{MaxTokens: 1000, Temperature: 0.3},
	})
	if err != nil {
		s.logger.Warn("performance analysis degraded to baseline", zap.Error(err))
		return analysis
	}

	var scored struct {
		SEOScore            int      `json:"seo_score"`
		ReadabilityScore    int      `json:"readability_score"`
		EngagementPotential int      `json:"engagement_potential"`
		Suggestions         []string `json:"suggestions"`
	}
	if err := json.Unmarshal(extractJSON(result.Text), &scored); err != nil {
		return analysis
	}

	if scored.SEOScore > 0 {
		analysis.SEOScore = scored.SEOScore
	}
	if scored.ReadabilityScore > 0 {
		analysis.ReadabilityScore = scored.ReadabilityScore
	}
	if scored.EngagementPotential > 0 {
		analysis.EngagementPotential = scored.EngagementPotential
	}
	if len(scored.Suggestions) > 0 {
		analysis.Suggestions = scored.Suggestions
	}
	return analysis
}
