// Package memory is an in-process credential store for tests and throwaway
// development servers. Nothing survives a restart.
package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/domain"
	"github.com/aussiebroadwan/backoffice/internal/admin/store"
)

type Store struct {
	mu    sync.RWMutex
	creds map[string]domain.Credential // keyed by encoded credential id
}

func NewStore() *Store {
	return &Store{creds: make(map[string]domain.Credential)}
}

func (s *Store) Credentials() store.Credentials { return (*credentialsRepo)(s) }
func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

type credentialsRepo Store

func (r *credentialsRepo) List(ctx context.Context) ([]domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Credential, 0, len(r.creds))
	for _, c := range r.creds {
		out = append(out, clone(c))
	}
	slices.SortFunc(out, func(a, b domain.Credential) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare([]byte(a.ID), []byte(b.ID))
	})
	return out, nil
}

func (r *credentialsRepo) Get(ctx context.Context, credentialID []byte) (domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.creds[domain.EncodeID(credentialID)]
	if !ok {
		return domain.Credential{}, store.ErrNotFound
	}
	return clone(c), nil
}

func (r *credentialsRepo) Insert(ctx context.Context, c domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := c.EncodedID()
	if _, ok := r.creds[key]; ok {
		return store.ErrAlreadyExists
	}
	r.creds[key] = clone(c)
	return nil
}

func (r *credentialsRepo) UpdateSignCounter(ctx context.Context, credentialID []byte, counter uint32, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.EncodeID(credentialID)
	c, ok := r.creds[key]
	if !ok {
		return store.ErrNotFound
	}
	if counter != 0 && counter <= c.SignCount {
		return store.ErrStaleCounter
	}

	if counter != 0 {
		c.SignCount = counter
	}
	used := usedAt.UTC()
	c.LastUsedAt = &used
	r.creds[key] = c
	return nil
}

// clone detaches byte slices so callers cannot mutate stored records.
func clone(c domain.Credential) domain.Credential {
	c.CredentialID = bytes.Clone(c.CredentialID)
	c.PublicKey = bytes.Clone(c.PublicKey)
	c.AAGUID = bytes.Clone(c.AAGUID)
	c.Transports = slices.Clone(c.Transports)
	if c.LastUsedAt != nil {
		t := *c.LastUsedAt
		c.LastUsedAt = &t
	}
	return c
}
