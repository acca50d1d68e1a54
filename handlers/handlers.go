package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/pollyhq/blogsmith/services/router"
	"github.com/pollyhq/blogsmith/utils"
)

// writeValidationError reports a rejected request body, with per-field
// details when the error carries them.
func writeValidationError(w http.ResponseWriter, err error) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		_ = utils.WriteBadRequest(w, "Validation failed", details)
		return
	}
	_ = utils.WriteBadRequest(w, err.Error(), nil)
}

// writeRouteError maps routing failures to HTTP responses. No configured
// provider is a deployment problem, an exhausted candidate list is an
// upstream one.
func writeRouteError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		_ = utils.WriteJSON(w, http.StatusGatewayTimeout, utils.ErrorResponse{
			Error:   "timeout",
			Message: "request cancelled or timed out",
		})
		return
	}

	if errors.Is(err, router.ErrNoProviderConfigured) {
		_ = utils.WriteServiceUnavailable(w, "no provider configured for this request", nil)
		return
	}

	var exhausted *router.ExhaustedError
	if errors.As(err, &exhausted) {
		_ = utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse{
			Error:   "providers_exhausted",
			Message: "every candidate provider failed",
			Details: map[string]interface{}{
				"capability": string(exhausted.Capability),
				"attempts":   exhausted.Attempts.String(),
			},
		})
		return
	}

	_ = utils.WriteInternalServerError(w, err.Error())
}
