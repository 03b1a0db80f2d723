// Package adminapi holds the wire types of the admin authentication API and
// a small client used by tooling and end-to-end tests.
package adminapi

import (
	"encoding/json"
	"time"
)

// Cookie names set by the service.
const (
	SessionCookie   = "admin-session"
	ChallengeCookie = "passkey-challenge"
)

// LoginRequest is the password fallback body.
type LoginRequest struct {
	Password string `json:"password"`
	TOTP     string `json:"totp,omitempty"`
	Next     string `json:"next,omitempty"`
}

// VerifyRequest finishes a passkey ceremony. Challenge is the value the
// browser believes it answered; Credential is the PublicKeyCredential JSON
// produced by navigator.credentials.create/get.
type VerifyRequest struct {
	Challenge  string          `json:"challenge"`
	Credential json.RawMessage `json:"credential"`
	Next       string          `json:"next,omitempty"`
}

// SessionResponse describes the current admin session.
type SessionResponse struct {
	Principal string    `json:"principal"`
	Methods   []string  `json:"methods,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Redirect  string    `json:"redirect,omitempty"`
}

// CredentialResponse is a registered passkey as exposed over the API.
// The public key is never returned.
type CredentialResponse struct {
	ID             string     `json:"id"`
	Transports     []string   `json:"transports"`
	SignCount      uint32     `json:"sign_count"`
	AAGUID         string     `json:"aaguid,omitempty"`
	BackupEligible bool       `json:"backup_eligible"`
	BackupState    bool       `json:"backup_state"`
	CreatedAt      time.Time  `json:"created_at"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
}

// CredentialListResponse wraps the credential listing.
type CredentialListResponse struct {
	Credentials []CredentialResponse `json:"credentials"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}
