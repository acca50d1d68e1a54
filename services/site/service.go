package site

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/pollyhq/blogsmith/internal/observability"
)

// Paths locates the Zola site on disk.
type Paths struct {
	Root    string
	Content string
	Static  string
}

// Service owns reading and writing the Zola site: posts, taxonomies,
// validation and builds.
type Service struct {
	paths   Paths
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewService creates a site service. metrics may be nil.
func NewService(paths Paths, logger *zap.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{paths: paths, logger: logger, metrics: metrics}
}

// Post is the metadata of one post on disk.
type Post struct {
	FilePath string   `json:"file_path"`
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Category []string `json:"category"`
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
}

// SavePost writes a post under the content directory and returns its path.
// section is the content subdirectory (e.g., "blog").
func (s *Service) SavePost(section string, fm Frontmatter, body string) (string, error) {
	rendered, err := fm.Render()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.paths.Content, section)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating content directory: %w", err)
	}

	path := filepath.Join(dir, fm.Slug+".md")
	content := rendered + "\n" + strings.TrimLeft(body, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing post: %w", err)
	}

	s.metrics.PostSaved()
	s.logger.Info("post saved", zap.String("path", path), zap.String("title", fm.Title))
	return path, nil
}

// ListPosts returns the posts in the blog section, newest first. Files that
// fail to parse are skipped.
func (s *Service) ListPosts() ([]Post, error) {
	blogDir := filepath.Join(s.paths.Content, "blog")
	entries, err := os.ReadDir(blogDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading blog directory: %w", err)
	}

	var posts []Post
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(blogDir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable post", zap.String("path", path), zap.Error(err))
			continue
		}
		fm, _, err := ParseFrontmatter(string(raw))
		if err != nil {
			s.logger.Warn("skipping post with bad frontmatter", zap.String("path", path), zap.Error(err))
			continue
		}
		title := fm.Title
		if title == "" {
			title = strings.TrimSuffix(entry.Name(), ".md")
		}
		posts = append(posts, Post{
			FilePath: path,
			Title:    title,
			Date:     fm.Date,
			Category: fm.Taxonomies.Category,
			Tags:     fm.Taxonomies.Tags,
			Summary:  fm.Extra.Summary,
		})
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].Date > posts[j].Date })
	return posts, nil
}

// Categories returns the distinct categories across all posts, sorted.
func (s *Service) Categories() ([]string, error) {
	posts, err := s.ListPosts()
	if err != nil {
		return nil, err
	}
	categories := lo.Uniq(lo.FlatMap(posts, func(p Post, _ int) []string { return p.Category }))
	sort.Strings(categories)
	return categories, nil
}

// Tags returns the distinct tags across all posts, sorted.
func (s *Service) Tags() ([]string, error) {
	posts, err := s.ListPosts()
	if err != nil {
		return nil, err
	}
	tags := lo.Uniq(lo.FlatMap(posts, func(p Post, _ int) []string { return p.Tags }))
	sort.Strings(tags)
	return tags, nil
}

// Stats summarizes the site content.
type Stats struct {
	PostCount  int      `json:"post_count"`
	WordCount  int      `json:"word_count"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

// SiteStats computes post and word counts over the blog section.
func (s *Service) SiteStats() (*Stats, error) {
	posts, err := s.ListPosts()
	if err != nil {
		return nil, err
	}

	words := 0
	for _, p := range posts {
		raw, err := os.ReadFile(p.FilePath)
		if err != nil {
			continue
		}
		_, body, err := ParseFrontmatter(string(raw))
		if err != nil {
			continue
		}
		words += len(strings.Fields(body))
	}

	categories := lo.Uniq(lo.FlatMap(posts, func(p Post, _ int) []string { return p.Category }))
	tags := lo.Uniq(lo.FlatMap(posts, func(p Post, _ int) []string { return p.Tags }))
	sort.Strings(categories)
	sort.Strings(tags)

	return &Stats{
		PostCount:  len(posts),
		WordCount:  words,
		Categories: categories,
		Tags:       tags,
	}, nil
}

var imageLinkRe = regexp.MustCompile(`!\[.*?\]\((.*?)\)`)

// ValidationResult reports content checks before a post is saved.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Issues     []string `json:"issues"`
	Warnings   []string `json:"warnings"`
	ImageCount int      `json:"image_count"`
	WordCount  int      `json:"word_count"`
}

// ValidateContent checks a full post file (frontmatter plus markdown body).
func (s *Service) ValidateContent(content string) ValidationResult {
	var issues, warnings []string

	if !strings.HasPrefix(content, frontmatterDelimiter) {
		issues = append(issues, "missing frontmatter")
	}
	if !strings.Contains(content, "# ") && !strings.Contains(content, "## ") {
		warnings = append(warnings, "no heading structure")
	}

	links := imageLinkRe.FindAllStringSubmatch(content, -1)
	for _, link := range links {
		if strings.HasPrefix(link[1], "http") {
			warnings = append(warnings, "external image link: "+link[1])
		}
	}

	return ValidationResult{
		Valid:      len(issues) == 0,
		Issues:     issues,
		Warnings:   warnings,
		ImageCount: len(links),
		WordCount:  len(strings.Fields(content)),
	}
}

// BuildResult is the outcome of a zola build.
type BuildResult struct {
	Success bool   `json:"success"`
	Stdout  string `json:"stdout,omitempty"`
	Stderr  string `json:"stderr,omitempty"`
}

// Build runs "zola build" in the site root.
func (s *Service) Build(ctx context.Context) (*BuildResult, error) {
	cmd := exec.CommandContext(ctx, "zola", "build")
	cmd.Dir = s.paths.Root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &BuildResult{
		Success: err == nil,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil {
		s.logger.Error("zola build failed", zap.Error(err), zap.String("stderr", result.Stderr))
		return result, fmt.Errorf("zola build: %w", err)
	}
	return result, nil
}
