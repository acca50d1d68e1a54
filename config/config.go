package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config represents the complete application configuration. It is loaded once
// at process start; the provider set derived from it is immutable for the
// process lifetime.
type Config struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	Server        ServerConfig
	Providers     ProvidersConfig
	Blog          BlogConfig
	Media         MediaConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"5m"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ProvidersConfig holds the generation backend configurations. Priority
// orders fallback: lower values are tried first.
type ProvidersConfig struct {
	DeepSeek DeepSeekConfig
	Azure    AzureConfig
	OpenAI   OpenAIConfig

	// AttemptTimeout bounds a single provider attempt within one request
	AttemptTimeout time.Duration `env:"PROVIDER_ATTEMPT_TIMEOUT" envDefault:"60s"`
}

// DeepSeekConfig holds DeepSeek provider configuration
type DeepSeekConfig struct {
	APIKey   string `env:"DEEPSEEK_API_KEY"`
	BaseURL  string `env:"DEEPSEEK_BASE_URL"`
	Priority int    `env:"DEEPSEEK_PRIORITY" envDefault:"1"`
}

// AzureConfig holds Azure OpenAI provider configuration
type AzureConfig struct {
	APIKey     string `env:"AZURE_OPENAI_API_KEY"`
	Endpoint   string `env:"AZURE_OPENAI_ENDPOINT"`
	Deployment string `env:"AZURE_OPENAI_DEPLOYMENT" envDefault:"dall-e-3"`
	Priority   int    `env:"AZURE_OPENAI_PRIORITY" envDefault:"2"`
}

// OpenAIConfig holds OpenAI provider configuration
type OpenAIConfig struct {
	APIKey   string `env:"OPENAI_API_KEY"`
	BaseURL  string `env:"OPENAI_BASE_URL"`
	OrgID    string `env:"OPENAI_ORG_ID"`
	Priority int    `env:"OPENAI_PRIORITY" envDefault:"3"`
}

// BlogConfig holds the Zola site paths
type BlogConfig struct {
	RootPath    string `env:"BLOG_ROOT_PATH" envDefault:"."`
	ContentPath string `env:"BLOG_CONTENT_PATH"`
	StaticPath  string `env:"BLOG_STATIC_PATH"`
}

// MediaConfig holds image generation and output configuration
type MediaConfig struct {
	OutputDir    string        `env:"OUTPUT_DIR" envDefault:"output/images"`
	ImageSize    string        `env:"IMAGE_SIZE" envDefault:"1792x1024"`
	ImageQuality string        `env:"IMAGE_QUALITY" envDefault:"standard"`
	APIDelay     time.Duration `env:"API_DELAY" envDefault:"2s"`
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json or text
}

// Load builds the configuration from the process environment. A .env file in
// the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	// Derived paths follow the Zola layout unless set explicitly.
	if cfg.Blog.ContentPath == "" {
		cfg.Blog.ContentPath = filepath.Join(cfg.Blog.RootPath, "content")
	}
	if cfg.Blog.StaticPath == "" {
		cfg.Blog.StaticPath = filepath.Join(cfg.Blog.RootPath, "static")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration can actually serve requests.
func (c *Config) Validate() error {
	p := c.Providers
	if p.DeepSeek.APIKey == "" && p.OpenAI.APIKey == "" && p.Azure.APIKey == "" {
		return fmt.Errorf("at least one provider credential is required: set DEEPSEEK_API_KEY, OPENAI_API_KEY or AZURE_OPENAI_API_KEY")
	}
	if p.Azure.APIKey != "" && p.Azure.Endpoint == "" {
		return fmt.Errorf("AZURE_OPENAI_ENDPOINT is required when AZURE_OPENAI_API_KEY is set")
	}
	if p.AttemptTimeout <= 0 {
		return fmt.Errorf("provider attempt timeout must be positive")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
