package adminapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/backoffice/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidChallenge   = "invalid_challenge"
	ErrorCodeVerificationFailed = "verification_failed"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeLoginRequired      = "login_required"
	ErrorCodeMisconfigured      = "server_misconfigured"
	ErrorCodeServerError        = "server_error"
)

// APIError is the error body every admin endpoint returns. It implements
// error so the client can hand it back unchanged.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on status and code so callers can errors.Is against the
// predefined values below.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Code == t.Code
}

// WriteError writes the error as JSON with no-cache headers.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

var (
	// ErrInvalidRequest covers malformed bodies and missing password/challenge.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidChallenge is returned when the ceremony binding cookie is
	// absent, expired, tampered with, or does not match the presented challenge.
	ErrInvalidChallenge = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidChallenge,
		Description: "invalid or expired challenge",
	}

	// ErrVerificationFailed covers every other ceremony failure. Which check
	// failed is only logged server side.
	ErrVerificationFailed = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeVerificationFailed,
		Description: "verification failed",
	}

	// ErrInvalidCredentials is the generic password-login failure.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid credentials",
	}

	// ErrLoginRequired is what the client reports when a protected endpoint
	// redirected to the login page.
	ErrLoginRequired = &APIError{
		StatusCode:  http.StatusSeeOther,
		Code:        ErrorCodeLoginRequired,
		Description: "a valid admin session is required",
	}

	// ErrMisconfigured is returned when the server secret or admin digest is
	// missing outside development.
	ErrMisconfigured = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeMisconfigured,
		Description: "authentication is not configured",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "the server encountered an unexpected condition",
	}
)

// parseErrorResponse turns a non-success response into an *APIError. Bodies
// that are not JSON still yield an error carrying the status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode == http.StatusSeeOther || resp.StatusCode == http.StatusFound {
		e := *ErrLoginRequired
		e.Description = resp.Header.Get("Location")
		return &e
	}

	e := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, e); err != nil || e.Code == "" {
		e.Code = ErrorCodeServerError
		e.Description = http.StatusText(resp.StatusCode)
	}
	return e
}
