package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/pollyhq/blogsmith/config"
	"github.com/pollyhq/blogsmith/internal/observability"
	"github.com/pollyhq/blogsmith/services/content"
	"github.com/pollyhq/blogsmith/services/media"
	"github.com/pollyhq/blogsmith/services/providers"
	"github.com/pollyhq/blogsmith/services/providers/azure"
	"github.com/pollyhq/blogsmith/services/providers/deepseek"
	"github.com/pollyhq/blogsmith/services/providers/openai"
	"github.com/pollyhq/blogsmith/services/router"
	"github.com/pollyhq/blogsmith/services/site"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Metrics
	PromRegistry *prometheus.Registry
	Metrics      *observability.Metrics

	// Providers and routing
	Registry *providers.Registry
	Router   *router.Router

	// Domain services
	Content *content.Service
	Media   *media.Service
	Site    *site.Service
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics()

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.Router = router.New(deps.Registry, router.Options{
		AttemptTimeout: cfg.Providers.AttemptTimeout,
		Logger:         logger.Named("router"),
		Metrics:        deps.Metrics,
	})

	deps.Content = content.NewService(deps.Router, logger.Named("content"))
	deps.Media = media.NewService(deps.Router, media.Options{
		OutputDir: cfg.Media.OutputDir,
		Size:      cfg.Media.ImageSize,
		Quality:   cfg.Media.ImageQuality,
		Delay:     cfg.Media.APIDelay,
		Logger:    logger.Named("media"),
		Metrics:   deps.Metrics,
	})
	deps.Site = site.NewService(site.Paths{
		Root:    cfg.Blog.RootPath,
		Content: cfg.Blog.ContentPath,
		Static:  cfg.Blog.StaticPath,
	}, logger.Named("site"), deps.Metrics)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initMetrics() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.PromRegistry = registry
	d.Metrics = observability.NewMetrics(registry)
}

// initProviders builds the provider registry from configured credentials.
// Registration order is the fallback tie-break for equal priorities, so
// providers are registered in declaration order.
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry := providers.NewRegistry()

	if cfg.Providers.DeepSeek.APIKey != "" {
		adapter := deepseek.New(providers.ProviderConfig{
			Name:         "deepseek",
			Capabilities: providers.NewCapabilitySet(providers.CapabilityText),
			APIKey:       cfg.Providers.DeepSeek.APIKey,
			Endpoint:     cfg.Providers.DeepSeek.BaseURL,
			Timeout:      cfg.Providers.AttemptTimeout,
		})
		if err := registry.Register(adapter, cfg.Providers.DeepSeek.Priority); err != nil {
			return err
		}
		d.Logger.Info("registered DeepSeek provider", zap.Int("priority", cfg.Providers.DeepSeek.Priority))
	}

	if cfg.Providers.Azure.APIKey != "" {
		adapter := azure.New(providers.ProviderConfig{
			Name:         "azure",
			Capabilities: providers.NewCapabilitySet(providers.CapabilityText, providers.CapabilityImage),
			APIKey:       cfg.Providers.Azure.APIKey,
			Endpoint:     cfg.Providers.Azure.Endpoint,
			Timeout:      cfg.Providers.AttemptTimeout,
		}, cfg.Providers.Azure.Deployment)
		if err := registry.Register(adapter, cfg.Providers.Azure.Priority); err != nil {
			return err
		}
		d.Logger.Info("registered Azure OpenAI provider", zap.Int("priority", cfg.Providers.Azure.Priority))
	}

	if cfg.Providers.OpenAI.APIKey != "" {
		var opts []openai.Option
		if cfg.Providers.OpenAI.OrgID != "" {
			opts = append(opts, openai.WithOrgID(cfg.Providers.OpenAI.OrgID))
		}
		adapter := openai.New(providers.ProviderConfig{
			Name:         "openai",
			Capabilities: providers.NewCapabilitySet(providers.CapabilityText, providers.CapabilityImage),
			APIKey:       cfg.Providers.OpenAI.APIKey,
			Endpoint:     cfg.Providers.OpenAI.BaseURL,
			Timeout:      cfg.Providers.AttemptTimeout,
		}, opts...)
		if err := registry.Register(adapter, cfg.Providers.OpenAI.Priority); err != nil {
			return err
		}
		d.Logger.Info("registered OpenAI provider", zap.Int("priority", cfg.Providers.OpenAI.Priority))
	}

	if registry.Len() == 0 {
		d.Logger.Warn("no generation providers configured")
	}

	d.Registry = registry
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close() {
	d.Logger.Info("shutting down dependencies")
	_ = d.Logger.Sync()
}
