package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/domain"
	"github.com/aussiebroadwan/backoffice/internal/admin/store"
)

const credentialColumns = `id, credential_id, public_key, attestation_type, aaguid,
	sign_count, transports, backup_eligible, backup_state, created_at, last_used_at`

type credentialsRepo struct {
	db *sql.DB
}

func (r *credentialsRepo) List(ctx context.Context) ([]domain.Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM passkey_credentials ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *credentialsRepo) Get(ctx context.Context, credentialID []byte) (domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM passkey_credentials WHERE credential_id = $1`,
		domain.EncodeID(credentialID))

	c, err := scanCredential(row)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}
	return c, nil
}

func (r *credentialsRepo) Insert(ctx context.Context, c domain.Credential) error {
	var lastUsed sql.NullTime
	if c.LastUsedAt != nil {
		lastUsed = sql.NullTime{Time: c.LastUsedAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO passkey_credentials (`+credentialColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID,
		domain.EncodeID(c.CredentialID),
		domain.EncodeID(c.PublicKey),
		c.AttestationType,
		domain.EncodeID(c.AAGUID),
		int64(c.SignCount),
		strings.Join(c.Transports, " "),
		c.BackupEligible,
		c.BackupState,
		c.CreatedAt.UTC(),
		lastUsed,
	)
	return mapConstraint(err)
}

// UpdateSignCounter uses a single guarded UPDATE so two racing assertions
// cannot move the counter backwards.
func (r *credentialsRepo) UpdateSignCounter(ctx context.Context, credentialID []byte, counter uint32, usedAt time.Time) error {
	id := domain.EncodeID(credentialID)

	res, err := r.db.ExecContext(ctx, `
		UPDATE passkey_credentials
		SET sign_count = CASE WHEN $1::BIGINT = 0 THEN sign_count ELSE $1::BIGINT END,
		    last_used_at = $2
		WHERE credential_id = $3 AND ($1::BIGINT = 0 OR sign_count < $1::BIGINT)`,
		int64(counter), usedAt.UTC(), id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM passkey_credentials WHERE credential_id = $1`, id).Scan(&exists)
	if err != nil {
		return mapNotFound(err)
	}
	return store.ErrStaleCounter
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (domain.Credential, error) {
	var (
		c                             domain.Credential
		credID, pubKey, aaguid, trans string
		count                         int64
		lastUsed                      sql.NullTime
	)

	err := s.Scan(&c.ID, &credID, &pubKey, &c.AttestationType, &aaguid,
		&count, &trans, &c.BackupEligible, &c.BackupState, &c.CreatedAt, &lastUsed)
	if err != nil {
		return domain.Credential{}, err
	}

	if c.CredentialID, err = domain.DecodeID(credID); err != nil {
		return domain.Credential{}, fmt.Errorf("postgres: decode credential_id: %w", err)
	}
	if c.PublicKey, err = domain.DecodeID(pubKey); err != nil {
		return domain.Credential{}, fmt.Errorf("postgres: decode public_key: %w", err)
	}
	if c.AAGUID, err = domain.DecodeID(aaguid); err != nil {
		return domain.Credential{}, fmt.Errorf("postgres: decode aaguid: %w", err)
	}

	c.SignCount = uint32(count) // #nosec G115 - CHECK constraint keeps it in range
	c.Transports = strings.Fields(trans)
	c.CreatedAt = c.CreatedAt.UTC()
	if lastUsed.Valid {
		t := lastUsed.Time.UTC()
		c.LastUsedAt = &t
	}
	return c, nil
}
