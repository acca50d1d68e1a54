package handlers

import (
	"net/http"

	"github.com/pollyhq/blogsmith/services/providers"
	"github.com/pollyhq/blogsmith/utils"
)

// ProviderHandler exposes the configured provider set
type ProviderHandler struct {
	registry *providers.Registry
}

// NewProviderHandler creates a new ProviderHandler
func NewProviderHandler(registry *providers.Registry) *ProviderHandler {
	return &ProviderHandler{registry: registry}
}

// HandleListProviders handles GET /api/v1/providers
func (h *ProviderHandler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, map[string]interface{}{
		"providers": h.registry.Describe(),
		"count":     h.registry.Len(),
	})
}
