package sqlite

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
		`SELECT `+credentialColumns+` FROM passkey_credentials WHERE credential_id = ?`,
		domain.EncodeID(credentialID))

	c, err := scanCredential(row)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}
	return c, nil
}

func (r *credentialsRepo) Insert(ctx context.Context, c domain.Credential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO passkey_credentials (`+credentialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
		mapOptionalTime(c.LastUsedAt),
	)
	return mapConstraint(err)
}

func (r *credentialsRepo) UpdateSignCounter(ctx context.Context, credentialID []byte, counter uint32, usedAt time.Time) error {
	id := domain.EncodeID(credentialID)
	n := int64(counter)

	res, err := r.db.ExecContext(ctx, `
		UPDATE passkey_credentials
		SET sign_count = CASE WHEN ? = 0 THEN sign_count ELSE ? END,
		    last_used_at = ?
		WHERE credential_id = ? AND (? = 0 OR sign_count < ?)`,
		n, n, usedAt.UTC(), id, n, n)
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
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM passkey_credentials WHERE credential_id = ?`, id).Scan(&exists)
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
		return domain.Credential{}, fmt.Errorf("sqlite: decode credential_id: %w", err)
	}
	if c.PublicKey, err = domain.DecodeID(pubKey); err != nil {
		return domain.Credential{}, fmt.Errorf("sqlite: decode public_key: %w", err)
	}
	if c.AAGUID, err = domain.DecodeID(aaguid); err != nil {
		return domain.Credential{}, fmt.Errorf("sqlite: decode aaguid: %w", err)
	}

	c.SignCount = uint32(count) // #nosec G115 - CHECK constraint keeps it in range
	c.Transports = strings.Fields(trans)
	c.CreatedAt = c.CreatedAt.UTC()
	c.LastUsedAt = mapNullTimePtr(lastUsed)
	return c, nil
}
