package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, 60*time.Second, cfg.Providers.AttemptTimeout)
	assert.Equal(t, 1, cfg.Providers.DeepSeek.Priority)
	assert.Equal(t, 2, cfg.Providers.Azure.Priority)
	assert.Equal(t, 3, cfg.Providers.OpenAI.Priority)
	assert.Equal(t, "dall-e-3", cfg.Providers.Azure.Deployment)
	assert.Equal(t, "1792x1024", cfg.Media.ImageSize)
	assert.Equal(t, "standard", cfg.Media.ImageQuality)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.False(t, cfg.IsProduction())
}

func TestLoadDerivesBlogPaths(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BLOG_ROOT_PATH", "/srv/blog")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/blog/content", cfg.Blog.ContentPath)
	assert.Equal(t, "/srv/blog/static", cfg.Blog.StaticPath)
}

func TestLoadExplicitPathsWin(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BLOG_ROOT_PATH", "/srv/blog")
	t.Setenv("BLOG_CONTENT_PATH", "/elsewhere/content")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/elsewhere/content", cfg.Blog.ContentPath)
}

func TestValidateRequiresACredential(t *testing.T) {
	cfg := &Config{
		Providers:     ProvidersConfig{AttemptTimeout: time.Minute},
		Observability: ObservabilityConfig{LogLevel: "info"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one provider credential")
}

func TestValidateAzureNeedsEndpoint(t *testing.T) {
	cfg := &Config{
		Providers: ProvidersConfig{
			Azure:          AzureConfig{APIKey: "k"},
			AttemptTimeout: time.Minute,
		},
		Observability: ObservabilityConfig{LogLevel: "info"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZURE_OPENAI_ENDPOINT")
}

func TestPriorityOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_PRIORITY", "1")
	t.Setenv("DEEPSEEK_PRIORITY", "9")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Providers.OpenAI.Priority)
	assert.Equal(t, 9, cfg.Providers.DeepSeek.Priority)
}
