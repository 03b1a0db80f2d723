package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/domain"
	"github.com/aussiebroadwan/backoffice/internal/admin/session"
	"github.com/aussiebroadwan/backoffice/pkg/cryptox"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func newPasswordService(t *testing.T, secret string) *PasswordService {
	t.Helper()
	admin := domain.NewAdmin("admin@example.com", "")
	codec, err := session.New(session.Config{Secret: []byte(secret), Subject: admin.Email})
	require.NoError(t, err)
	return &PasswordService{Sessions: codec, Admin: admin, Secret: secret, SessionTTL: time.Hour}
}

func TestPassword_DevelopmentDefault(t *testing.T) {
	t.Parallel()
	s := newPasswordService(t, testSecret)
	s.Development = true

	tok, err := s.Login(context.Background(), DefaultDevPassword, "")
	require.NoError(t, err)

	p, err := s.Sessions.Verify(tok.Value)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", p.Subject)
	require.Equal(t, []string{session.MethodPassword}, p.Methods)

	_, err = s.Login(context.Background(), "letmein", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPassword_ProductionWithoutDigestFailsClosed(t *testing.T) {
	t.Parallel()
	s := newPasswordService(t, testSecret)

	_, err := s.Login(context.Background(), DefaultDevPassword, "")
	require.ErrorIs(t, err, ErrMisconfigured)
}

func TestPassword_ProductionWithoutSecretFailsClosed(t *testing.T) {
	t.Parallel()
	s := newPasswordService(t, "")
	s.Digest = cryptox.Digest("hunter2", "whatever")

	_, err := s.Login(context.Background(), "hunter2", "")
	require.ErrorIs(t, err, ErrMisconfigured)
}

func TestPassword_Digests(t *testing.T) {
	t.Parallel()

	argon, err := cryptox.HashPassword("correct horse", testSecret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		digest string
	}{
		{"keyed digest", cryptox.Digest("correct horse", testSecret)},
		{"argon2id", argon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newPasswordService(t, testSecret)
			s.Digest = tt.digest

			_, err := s.Login(context.Background(), "correct horse", "")
			require.NoError(t, err)

			_, err = s.Login(context.Background(), "Correct horse", "")
			require.ErrorIs(t, err, ErrInvalidCredentials)

			// The dev default never applies once a digest is configured.
			s.Development = true
			_, err = s.Login(context.Background(), DefaultDevPassword, "")
			require.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestPassword_TOTP(t *testing.T) {
	t.Parallel()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "Back Office", AccountName: "admin@example.com"})
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newPasswordService(t, testSecret)
	s.Digest = cryptox.Digest("pw", testSecret)
	s.TOTPSecret = key.Secret()
	s.Now = func() time.Time { return now }

	code, err := totp.GenerateCode(key.Secret(), now)
	require.NoError(t, err)

	tok, err := s.Login(context.Background(), "pw", code)
	require.NoError(t, err)
	p, err := s.Sessions.Verify(tok.Value)
	require.NoError(t, err)
	require.Equal(t, []string{session.MethodPassword, session.MethodOTP}, p.Methods)

	_, err = s.Login(context.Background(), "pw", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	stale, err := totp.GenerateCode(key.Secret(), now.Add(-5*time.Minute))
	require.NoError(t, err)
	_, err = s.Login(context.Background(), "pw", stale)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
