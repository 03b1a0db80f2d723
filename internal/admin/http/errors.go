package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/backoffice/internal/admin/service"
	"github.com/aussiebroadwan/backoffice/pkg/adminapi"
	"github.com/aussiebroadwan/backoffice/pkg/slogx"
)

// writeServiceError maps a service outcome onto the API error body. Anything
// unrecognised is an internal failure and is logged with its cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidChallenge):
		adminapi.ErrInvalidChallenge.WriteError(w)
	case errors.Is(err, service.ErrVerificationFailed):
		adminapi.ErrVerificationFailed.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		adminapi.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrMisconfigured):
		slogx.FromContext(r.Context()).Error("authentication misconfigured", "err", err)
		adminapi.ErrMisconfigured.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		adminapi.ErrServerError.WriteError(w)
	}
}
