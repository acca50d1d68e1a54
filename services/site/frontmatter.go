package site

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const frontmatterDelimiter = "+++"

// Frontmatter is the Zola TOML frontmatter of one post.
type Frontmatter struct {
	Title      string     `toml:"title"`
	Date       string     `toml:"date"`
	Template   string     `toml:"template,omitempty"`
	Slug       string     `toml:"slug,omitempty"`
	Path       string     `toml:"path,omitempty"`
	Draft      bool       `toml:"draft,omitempty"`
	Archive    []string   `toml:"archive,omitempty"`
	Taxonomies Taxonomies `toml:"taxonomies"`
	Extra      Extra      `toml:"extra"`
}

// Taxonomies holds the Zola taxonomy terms of a post.
type Taxonomies struct {
	Category []string `toml:"category,omitempty"`
	Tags     []string `toml:"tags,omitempty"`
}

// Extra holds the site-specific frontmatter extras.
type Extra struct {
	Author  string `toml:"author,omitempty"`
	Summary string `toml:"summary,omitempty"`
}

// NewFrontmatter builds the standard frontmatter for a generated post. date
// defaults to today, template to "blog.html", and the slug is derived from
// the title.
func NewFrontmatter(title, category, summary string, tags []string) Frontmatter {
	slug := Slug(title)
	return Frontmatter{
		Title:    title,
		Date:     time.Now().Format("2006-01-02"),
		Template: "blog.html",
		Slug:     slug,
		Path:     slug,
		Archive:  []string{fmt.Sprintf("%d", time.Now().Year())},
		Taxonomies: Taxonomies{
			Category: []string{category},
			Tags:     tags,
		},
		Extra: Extra{
			Author:  "Polly",
			Summary: summary,
		},
	}
}

// Render serializes the frontmatter between +++ delimiters.
func (f Frontmatter) Render() (string, error) {
	body, err := toml.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}
	return frontmatterDelimiter + "\n" + string(body) + frontmatterDelimiter + "\n", nil
}

// ParseFrontmatter splits a post file into frontmatter and markdown body.
func ParseFrontmatter(content string) (Frontmatter, string, error) {
	var fm Frontmatter

	trimmed := strings.TrimLeft(content, "\ufeff \n")
	if !strings.HasPrefix(trimmed, frontmatterDelimiter) {
		return fm, "", fmt.Errorf("content has no %s frontmatter", frontmatterDelimiter)
	}

	rest := trimmed[len(frontmatterDelimiter):]
	end := strings.Index(rest, frontmatterDelimiter)
	if end < 0 {
		return fm, "", fmt.Errorf("unterminated frontmatter")
	}

	if err := toml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return fm, "", fmt.Errorf("parsing frontmatter: %w", err)
	}

	body := strings.TrimLeft(rest[end+len(frontmatterDelimiter):], "\n")
	return fm, body, nil
}

var (
	slugStripRe    = regexp.MustCompile(`[^\w\s\-\x{4e00}-\x{9fff}]`)
	slugSpaceRe    = regexp.MustCompile(`\s+`)
	slugCollapseRe = regexp.MustCompile(`-+`)
	slugCJKOnlyRe  = regexp.MustCompile(`^[\x{4e00}-\x{9fff}\-]+$`)
)

// cjkKeywords maps common Chinese title keywords to slug fragments, so a
// Chinese-only title still gets a readable URL. Unmatched titles fall back to
// a date-based slug.
var cjkKeywords = []struct{ keyword, slug string }{
	{"人工智能", "artificial-intelligence"},
	{"机器学习", "machine-learning"},
	{"深度学习", "deep-learning"},
	{"博客", "blog"},
	{"教程", "tutorial"},
	{"指南", "guide"},
	{"实践", "practice"},
	{"技术", "technology"},
	{"开发", "development"},
	{"编程", "programming"},
	{"代码", "code"},
	{"项目", "project"},
	{"工具", "tools"},
	{"框架", "framework"},
	{"部署", "deployment"},
	{"优化", "optimization"},
	{"分析", "analysis"},
	{"设计", "design"},
	{"客栈", "guesthouse"},
	{"丽江", "lijiang"},
}

// Slug derives a URL slug from a post title. Latin titles become
// lowercase-hyphenated; Chinese-only titles are mapped through the keyword
// table or fall back to post-YYYYMMDD.
func Slug(title string) string {
	slug := slugStripRe.ReplaceAllString(title, "")
	slug = slugSpaceRe.ReplaceAllString(slug, "-")
	slug = strings.ToLower(slug)
	slug = slugCollapseRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if slug == "" || slugCJKOnlyRe.MatchString(slug) {
		return cjkSlug(title)
	}
	return slug
}

func cjkSlug(title string) string {
	var parts []string
	for _, kw := range cjkKeywords {
		if strings.Contains(title, kw.keyword) {
			parts = append(parts, kw.slug)
			if len(parts) == 3 {
				break
			}
		}
	}
	if len(parts) == 0 {
		return "post-" + time.Now().Format("20060102")
	}
	return strings.Join(parts, "-")
}
