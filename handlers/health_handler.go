package handlers

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pollyhq/blogsmith/services/providers"
	"github.com/pollyhq/blogsmith/utils"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	registry    *providers.Registry
	contentPath string
	logger      *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(registry *providers.Registry, contentPath string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{registry: registry, contentPath: contentPath, logger: logger}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Readiness check - validates that providers and the content tree are usable
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	allHealthy := true

	if h.registry.Len() == 0 {
		checks["providers"] = "unhealthy"
		allHealthy = false
	} else {
		checks["providers"] = "healthy"
	}

	if _, err := os.Stat(h.contentPath); err != nil {
		h.logger.Warn("content path check failed", zap.String("path", h.contentPath), zap.Error(err))
		checks["content_path"] = "unhealthy"
		allHealthy = false
	} else {
		checks["content_path"] = "healthy"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
