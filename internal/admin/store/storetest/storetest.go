// Package storetest is a conformance suite every store driver runs against.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/domain"
	"github.com/aussiebroadwan/backoffice/internal/admin/store"
	"github.com/aussiebroadwan/backoffice/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns a migrated, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

// NewCredential builds a credential with the given raw id and counter.
func NewCredential(rawID string, counter uint32) domain.Credential {
	return domain.Credential{
		ID:              idx.New(),
		CredentialID:    []byte(rawID),
		PublicKey:       []byte("cose-key-" + rawID),
		AttestationType: "none",
		AAGUID:          make([]byte, 16),
		SignCount:       counter,
		Transports:      []string{"internal", "hybrid"},
		BackupEligible:  true,
		BackupState:     false,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
}

// Run exercises the Credentials contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("empty list", func(t *testing.T) {
		s := newStore(t)
		creds, err := s.Credentials().List(context.Background())
		require.NoError(t, err)
		require.Empty(t, creds)
	})

	t.Run("insert then get and list", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		first := NewCredential("cred-1", 0)
		second := NewCredential("cred-2", 7)
		second.CreatedAt = first.CreatedAt.Add(time.Second)
		require.NoError(t, s.Credentials().Insert(ctx, first))
		require.NoError(t, s.Credentials().Insert(ctx, second))

		got, err := s.Credentials().Get(ctx, []byte("cred-2"))
		require.NoError(t, err)
		require.Equal(t, second.ID, got.ID)
		require.Equal(t, second.CredentialID, got.CredentialID)
		require.Equal(t, second.PublicKey, got.PublicKey)
		require.Equal(t, second.AAGUID, got.AAGUID)
		require.Equal(t, uint32(7), got.SignCount)
		require.Equal(t, []string{"internal", "hybrid"}, got.Transports)
		require.True(t, got.BackupEligible)
		require.False(t, got.BackupState)
		require.WithinDuration(t, second.CreatedAt, got.CreatedAt, time.Second)
		require.Nil(t, got.LastUsedAt)

		list, err := s.Credentials().List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, first.ID, list[0].ID)
		require.Equal(t, second.ID, list[1].ID)
	})

	t.Run("get unknown", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Credentials().Get(context.Background(), []byte("missing"))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate credential id", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Credentials().Insert(ctx, NewCredential("dup", 0)))
		err := s.Credentials().Insert(ctx, NewCredential("dup", 0))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("sign counter moves forward only", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Credentials().Insert(ctx, NewCredential("ctr", 5)))

		used := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
		require.ErrorIs(t, s.Credentials().UpdateSignCounter(ctx, []byte("ctr"), 5, used), store.ErrStaleCounter)
		require.ErrorIs(t, s.Credentials().UpdateSignCounter(ctx, []byte("ctr"), 4, used), store.ErrStaleCounter)

		require.NoError(t, s.Credentials().UpdateSignCounter(ctx, []byte("ctr"), 6, used))
		got, err := s.Credentials().Get(ctx, []byte("ctr"))
		require.NoError(t, err)
		require.Equal(t, uint32(6), got.SignCount)
		require.NotNil(t, got.LastUsedAt)
		require.WithinDuration(t, used, *got.LastUsedAt, time.Second)

		// zero means "no counter": accepted, stored value untouched
		later := used.Add(time.Hour)
		require.NoError(t, s.Credentials().UpdateSignCounter(ctx, []byte("ctr"), 0, later))
		got, err = s.Credentials().Get(ctx, []byte("ctr"))
		require.NoError(t, err)
		require.Equal(t, uint32(6), got.SignCount)
		require.WithinDuration(t, later, *got.LastUsedAt, time.Second)
	})

	t.Run("update unknown", func(t *testing.T) {
		s := newStore(t)
		err := s.Credentials().UpdateSignCounter(context.Background(), []byte("missing"), 1, time.Now())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("concurrent updates never go backwards", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Credentials().Insert(ctx, NewCredential("race", 0)))

		var wg sync.WaitGroup
		for i := uint32(1); i <= 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Credentials().UpdateSignCounter(ctx, []byte("race"), i, time.Now())
			}()
		}
		wg.Wait()

		got, err := s.Credentials().Get(ctx, []byte("race"))
		require.NoError(t, err)
		require.Equal(t, uint32(20), got.SignCount)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Ping(context.Background()))
	})
}
