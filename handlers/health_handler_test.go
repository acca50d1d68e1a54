package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pollyhq/blogsmith/services/providers"
)

func TestHandleHealth(t *testing.T) {
	h := NewHealthHandler(providers.NewRegistry(), t.TempDir(), zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleReadiness(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		registry := providers.NewRegistry()
		require.NoError(t, registry.Register(&fakeProvider{
			name: "deepseek",
			caps: providers.NewCapabilitySet(providers.CapabilityText),
		}, 1))
		h := NewHealthHandler(registry, t.TempDir(), zap.NewNop())

		w := httptest.NewRecorder()
		h.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no providers", func(t *testing.T) {
		h := NewHealthHandler(providers.NewRegistry(), t.TempDir(), zap.NewNop())

		w := httptest.NewRecorder()
		h.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp struct {
			Data HealthResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "unhealthy", resp.Data.Checks["providers"])
	})

	t.Run("missing content path", func(t *testing.T) {
		registry := providers.NewRegistry()
		require.NoError(t, registry.Register(&fakeProvider{
			name: "deepseek",
			caps: providers.NewCapabilitySet(providers.CapabilityText),
		}, 1))
		h := NewHealthHandler(registry, "/does/not/exist", zap.NewNop())

		w := httptest.NewRecorder()
		h.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
