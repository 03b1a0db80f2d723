package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/domain"
	"github.com/aussiebroadwan/backoffice/internal/admin/session"
	"github.com/aussiebroadwan/backoffice/pkg/cryptox"
	"github.com/aussiebroadwan/backoffice/pkg/jwtx"
	"github.com/aussiebroadwan/backoffice/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// DefaultDevPassword is accepted when no digest is configured and the
// service runs in development. Any other environment fails closed.
const DefaultDevPassword = "changeme"

// PasswordService is the shared-secret fallback for when no passkey is at
// hand.
type PasswordService struct {
	Sessions *session.Codec
	Admin    domain.Admin

	// Secret keys the digest; Digest is ADMIN_PASSWORD_HASH, either a keyed
	// digest or an Argon2id PHC string.
	Secret string
	Digest string
	// TOTPSecret enables a second factor when set.
	TOTPSecret  string
	Development bool

	SessionTTL time.Duration
	Now        func() time.Time
}

// Login checks the password (and TOTP code when enabled) and mints a session.
func (s *PasswordService) Login(ctx context.Context, password, totpCode string) (session.Token, error) {
	log := slogx.FromContext(ctx)

	ok, err := s.checkPassword(password)
	if err != nil {
		log.Error("password login unavailable", "err", err)
		return session.Token{}, err
	}
	if !ok {
		log.Warn("password login rejected: password mismatch")
		return session.Token{}, ErrInvalidCredentials
	}

	methods := []string{session.MethodPassword}
	if s.TOTPSecret != "" {
		valid, err := totp.ValidateCustom(totpCode, s.TOTPSecret, s.now().UTC(), totp.ValidateOpts{
			Period:    30,
			Skew:      1,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil || !valid {
			log.Warn("password login rejected: totp", "err", err)
			return session.Token{}, ErrInvalidCredentials
		}
		methods = append(methods, session.MethodOTP)
	}

	tok, err := s.Sessions.Issue(s.Admin.Email, s.sessionTTL(), methods...)
	if err != nil {
		if errors.Is(err, session.ErrMisconfigured) {
			log.Error("password login unavailable", "err", err)
			return session.Token{}, ErrMisconfigured
		}
		return session.Token{}, fmt.Errorf("issue session: %w", err)
	}

	log.Info("password login", "methods", methods)
	return tok, nil
}

func (s *PasswordService) checkPassword(password string) (bool, error) {
	if s.Digest == "" {
		if !s.Development {
			return false, fmt.Errorf("%w: ADMIN_PASSWORD_HASH is not set", ErrMisconfigured)
		}
		return subtle.ConstantTimeCompare([]byte(password), []byte(DefaultDevPassword)) == 1, nil
	}
	if s.Secret == "" && !s.Development {
		return false, fmt.Errorf("%w: server secret is not set", ErrMisconfigured)
	}
	return cryptox.VerifyAdminPassword(password, s.Secret, s.Digest), nil
}

func (s *PasswordService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return jwtx.DefaultSessionTTL
}

func (s *PasswordService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
