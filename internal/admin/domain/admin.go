package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Admin is the single administrative identity. It is configured rather than
// stored, so it has no lifecycle of its own.
type Admin struct {
	Email       string
	DisplayName string
}

// NewAdmin normalises the configured email. The display name falls back to
// the email.
func NewAdmin(email, displayName string) Admin {
	email = strings.ToLower(strings.TrimSpace(email))
	if displayName == "" {
		displayName = email
	}
	return Admin{Email: email, DisplayName: displayName}
}

// Handle is the stable WebAuthn user handle: a name-based UUID of the admin
// email, so it survives restarts without being persisted and leaks nothing.
func (a Admin) Handle() []byte {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+a.Email))
	return id[:]
}
