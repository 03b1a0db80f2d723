package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrStaleCounter is returned by UpdateSignCounter when the stored counter
	// is already at or beyond the new value, which means another assertion
	// from the same authenticator got there first.
	ErrStaleCounter = errors.New("store: stale sign counter")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres, memory) implement this and expose sub-repositories.
type Store interface {
	Credentials() Credentials

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Credentials persists passkey records for the admin principal.
type Credentials interface {
	// List returns all credentials, oldest first.
	List(ctx context.Context) ([]domain.Credential, error)

	// Get looks up a credential by its raw credential id.
	Get(ctx context.Context, credentialID []byte) (domain.Credential, error)

	// Insert stores a freshly registered credential. A duplicate credential
	// id yields ErrAlreadyExists.
	Insert(ctx context.Context, c domain.Credential) error

	// UpdateSignCounter records a successful assertion at usedAt: it sets the
	// counter and last_used_at. The write only applies when counter is zero or
	// strictly greater than the stored value, otherwise ErrStaleCounter.
	UpdateSignCounter(ctx context.Context, credentialID []byte, counter uint32, usedAt time.Time) error
}
