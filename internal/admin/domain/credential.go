package domain

import (
	"encoding/base64"
	"time"
)

// Credential is a registered passkey for the admin principal. There is no
// owner column: every stored credential belongs to the single admin.
type Credential struct {
	ID string // ULID row id

	// CredentialID is the authenticator-chosen raw id, unique per record.
	CredentialID []byte
	// PublicKey is the COSE-encoded public key used to verify assertions.
	PublicKey []byte

	AttestationType string
	AAGUID          []byte

	// SignCount is the last counter reported by the authenticator. It only
	// ever moves forward; zero means the authenticator does not keep one.
	SignCount uint32

	Transports []string

	BackupEligible bool
	BackupState    bool

	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// EncodedID is the base64url (no padding) form used for storage and transport.
func (c Credential) EncodedID() string {
	return EncodeID(c.CredentialID)
}

// EncodeID encodes a raw credential id the same way the browser does.
func EncodeID(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeID reverses EncodeID.
func DecodeID(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
