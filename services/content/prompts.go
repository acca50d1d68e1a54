package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

var styleGuides = map[string]string{
	"professional": "professional and authoritative, precise wording, suitable for a technical audience",
	"casual":       "relaxed and conversational, approachable wording, suitable for a general audience",
	"academic":     "rigorous and formal, careful argumentation, suitable for an academic audience",
}

var lengthGuides = map[string]string{
	"short":  "800-1200 words",
	"medium": "1500-2500 words",
	"long":   "3000-5000 words",
}

var depthGuides = map[string]string{
	"shallow": "3-5 main points",
	"medium":  "5-8 main points",
	"deep":    "8-12 main points with subsections",
}

func guide(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return m[fallback]
}

func buildPostPrompt(req PostRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a blog post about %q.\n\n", req.Topic)
	fmt.Fprintf(&b, "Requirements:\n")
	fmt.Fprintf(&b, "- Style: %s\n", guide(styleGuides, req.Style, "professional"))
	fmt.Fprintf(&b, "- Length: %s\n", guide(lengthGuides, req.TargetLength, "medium"))
	fmt.Fprintf(&b, "- Use Markdown with ## section headings\n")
	if req.IncludeCode {
		fmt.Fprintf(&b, "- Include code examples in fenced code blocks\n")
	}
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, "- Work in these keywords naturally: %s\n", strings.Join(req.Keywords, ", "))
	}
	if req.Outline != "" {
		fmt.Fprintf(&b, "\nFollow this outline:\n%s\n", req.Outline)
	}
	b.WriteString("\nRespond with JSON only, in this shape:\n")
	b.WriteString(`{"title": "post title", "summary": "one to two sentence summary", "content": "full Markdown body"}`)
	return b.String()
}

func buildOutlinePrompt(topic, depth string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a blog post outline for %q with %s.\n\n", topic, guide(depthGuides, depth, "medium"))
	b.WriteString("Respond with JSON only, in this shape:\n")
	b.WriteString(`{"structure": [{"title": "section title", "description": "what it covers", "subsections": ["subsection"]}], "estimated_length": "word estimate", "key_points": ["takeaway"], "resources": ["suggested reference"]}`)
	return b.String()
}

var optimizationGoals = map[string]string{
	"seo":         "improve search visibility: tighten the title, distribute keywords, add internal structure",
	"readability": "improve readability: shorter sentences, clearer transitions, simpler wording",
	"engagement":  "improve engagement: stronger hook, concrete examples, a clear call to action",
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

func buildOptimizationPrompt(content, optimizationType string, keywords []string) string {
	// Long inputs are truncated so the rewrite fits the token budget.
	content = truncate(content, 3000)
	var b strings.Builder
	fmt.Fprintf(&b, "Optimize the following blog content. Goal: %s.\n", guide(optimizationGoals, optimizationType, "seo"))
	if len(keywords) > 0 {
		fmt.Fprintf(&b, "Target keywords: %s\n", strings.Join(keywords, ", "))
	}
	fmt.Fprintf(&b, "\nContent:\n%s\n\n", content)
	b.WriteString("Respond with JSON only, in this shape:\n")
	b.WriteString(`{"content": "optimized Markdown", "improvements": ["change made"], "seo_score": 8, "readability_score": 8}`)
	return b.String()
}

func buildAnalysisPrompt(content string) string {
	content = truncate(content, 3000)
	var b strings.Builder
	fmt.Fprintf(&b, "Score the following blog content from 1 to 10 for SEO, readability and engagement potential, and suggest improvements.\n\nContent:\n%s\n\n", content)
	b.WriteString("Respond with JSON only, in this shape:\n")
	b.WriteString(`{"seo_score": 7, "readability_score": 7, "engagement_potential": 7, "suggestions": ["improvement"]}`)
	return b.String()
}

// extractJSON strips markdown code fences and returns the JSON object in a
// model response. Models wrap JSON in fences often enough that parsing the
// raw text first is not worth it.
func extractJSON(text string) []byte {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			return []byte(text[start : end+1])
		}
	}
	return []byte(text)
}

func parsePostResponse(text string) *PostDraft {
	var draft PostDraft
	if err := json.Unmarshal(extractJSON(text), &draft); err != nil || draft.Content == "" {
		// The model ignored the JSON contract; treat the whole reply as
		// the body so the call still yields a usable draft.
		return &PostDraft{Content: text}
	}
	return &draft
}

func parseOutlineResponse(text string) *Outline {
	var outline Outline
	if err := json.Unmarshal(extractJSON(text), &outline); err != nil || len(outline.Structure) == 0 {
		return &Outline{
			Structure:       []OutlineSection{{Title: "Outline", Description: text}},
			EstimatedLength: "unknown",
		}
	}
	return &outline
}

func parseOptimizationResponse(text string) *Optimization {
	var opt Optimization
	if err := json.Unmarshal(extractJSON(text), &opt); err != nil || opt.Content == "" {
		return &Optimization{Content: text, SEOScore: 7, ReadabilityScore: 7}
	}
	return &opt
}
