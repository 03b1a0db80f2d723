package service

import (
	"errors"
	"log/slog"

	"github.com/go-webauthn/webauthn/protocol"
)

// Outcomes surfaced to the HTTP layer. Anything else returned by a service
// method is an internal failure (store unavailable, encoding error).
var (
	// ErrInvalidChallenge is a missing, expired, tampered or mismatched
	// ceremony binding.
	ErrInvalidChallenge = errors.New("invalid or expired challenge")
	// ErrVerificationFailed is every other ceremony rejection. Which check
	// failed is logged, never returned.
	ErrVerificationFailed = errors.New("verification failed")
	// ErrInvalidCredentials is a wrong password or TOTP code.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMisconfigured means the server secret or admin digest is missing
	// outside development.
	ErrMisconfigured = errors.New("authentication not configured")
)

// webauthnAttrs expands a go-webauthn error into log attributes. The library
// keeps the precise failed check in DevInfo.
func webauthnAttrs(err error) []any {
	attrs := []any{"err", err}
	var perr *protocol.Error
	if errors.As(err, &perr) {
		attrs = append(attrs, "type", perr.Type, "details", perr.Details)
		if perr.DevInfo != "" {
			attrs = append(attrs, "info", perr.DevInfo)
		}
	}
	return attrs
}

func warn(log *slog.Logger, msg string, err error) {
	log.Warn(msg, webauthnAttrs(err)...)
}
