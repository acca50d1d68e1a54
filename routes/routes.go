package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pollyhq/blogsmith/app"
	"github.com/pollyhq/blogsmith/handlers"
	"github.com/pollyhq/blogsmith/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger.Named("http")))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(5 * time.Minute))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	contentHandler := handlers.NewContentHandler(deps.Content, deps.Site, deps.Logger)
	mediaHandler := handlers.NewMediaHandler(deps.Media, deps.Logger)
	siteHandler := handlers.NewSiteHandler(deps.Site, deps.Logger)
	providerHandler := handlers.NewProviderHandler(deps.Registry)
	healthHandler := handlers.NewHealthHandler(deps.Registry, deps.Config.Blog.ContentPath, deps.Logger)

	// Health and metrics endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)
	r.Handle("/metrics", promhttp.HandlerFor(deps.PromRegistry, promhttp.HandlerOpts{}))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/providers", providerHandler.HandleListProviders)

		r.Route("/content", func(r chi.Router) {
			r.Post("/posts", contentHandler.HandleGeneratePost)
			r.Post("/outline", contentHandler.HandleGenerateOutline)
			r.Post("/optimize", contentHandler.HandleOptimize)
			r.Post("/summarize", contentHandler.HandleSummarize)
			r.Post("/translate", contentHandler.HandleTranslate)
			r.Post("/analyze", contentHandler.HandleAnalyze)
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/images", mediaHandler.HandleGenerateImage)
			r.Post("/blog-images", mediaHandler.HandleGenerateBlogImage)
			r.Post("/images/batch", mediaHandler.HandleBatchGenerate)
		})

		r.Route("/site", func(r chi.Router) {
			r.Get("/posts", siteHandler.HandleListPosts)
			r.Get("/taxonomies", siteHandler.HandleTaxonomies)
			r.Get("/stats", siteHandler.HandleStats)
			r.Post("/validate", siteHandler.HandleValidate)
			r.Post("/build", siteHandler.HandleBuild)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
