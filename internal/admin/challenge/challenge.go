// Package challenge binds a WebAuthn ceremony to the client that started it.
//
// Nothing is stored server side: the ceremony's session data (challenge,
// allowed credentials, user handle) travels in a signed, short-lived cookie
// value and is checked against what the client presents on verification.
package challenge

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/backoffice/pkg/cryptox"
	"github.com/aussiebroadwan/backoffice/pkg/jwtx"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long a ceremony may stay open.
const DefaultTTL = 5 * time.Minute

const issuer = "backoffice/challenge"

// Kind distinguishes the two ceremonies so a registration binding can never
// be spent on a login and vice versa.
type Kind string

const (
	KindRegistration   Kind = "registration"
	KindAuthentication Kind = "authentication"
)

var (
	// ErrInvalidChallenge is the single outcome for an absent, expired,
	// tampered, mismatched or wrong-kind binding.
	ErrInvalidChallenge = errors.New("challenge: invalid or expired challenge")

	// ErrMisconfigured means no server secret is available.
	ErrMisconfigured = errors.New("challenge: server secret not configured")
)

type claims struct {
	jwt.RegisteredClaims

	Kind    Kind                 `json:"knd"`
	Session webauthn.SessionData `json:"ses"`
}

type Config struct {
	Secret []byte
	TTL    time.Duration
	Leeway time.Duration
	Now    func() time.Time
}

// Broker issues and consumes ceremony bindings. Safe for concurrent use.
type Broker struct {
	signer   *jwtx.HS256Signer
	verifier *jwtx.HS256Verifier
	ttl      time.Duration
	now      func() time.Time
}

func New(cfg Config) (*Broker, error) {
	b := &Broker{ttl: cfg.TTL, now: cfg.Now}
	if b.ttl <= 0 {
		b.ttl = DefaultTTL
	}
	if b.now == nil {
		b.now = time.Now
	}
	if len(cfg.Secret) == 0 {
		return b, nil
	}

	key := cryptox.DeriveKey(cfg.Secret, "passkey-challenge")

	signer, err := jwtx.NewSignerHS256("", key)
	if err != nil {
		return nil, err
	}
	verifier, err := jwtx.NewVerifierHS256(key, jwtx.VerifyOptions{
		Issuer: issuer,
		Leeway: cfg.Leeway,
		Now:    b.now,
	})
	if err != nil {
		return nil, err
	}

	b.signer, b.verifier = signer, verifier
	return b, nil
}

// TTL is the binding lifetime, used as the cookie max-age.
func (b *Broker) TTL() time.Duration { return b.ttl }

// Issue seals the ceremony session into a cookie value that expires after
// the broker TTL.
func (b *Broker) Issue(kind Kind, session webauthn.SessionData) (string, time.Time, error) {
	if b.signer == nil {
		return "", time.Time{}, ErrMisconfigured
	}
	if session.Challenge == "" {
		return "", time.Time{}, errors.New("challenge: session has no challenge")
	}

	now := b.now().UTC().Truncate(time.Second)
	expires := now.Add(b.ttl)

	value, err := b.signer.Sign(claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   string(kind),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        jwtx.NewJTI(),
		},
		Kind:    kind,
		Session: session,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("challenge: seal: %w", err)
	}
	return value, expires, nil
}

// Consume opens the cookie value and checks that presented is the challenge
// it was issued for. The caller must clear the cookie whatever the result.
func (b *Broker) Consume(kind Kind, presented, cookie string) (webauthn.SessionData, error) {
	if b.verifier == nil {
		return webauthn.SessionData{}, ErrMisconfigured
	}
	if cookie == "" || presented == "" {
		return webauthn.SessionData{}, ErrInvalidChallenge
	}

	var c claims
	if err := b.verifier.Verify(cookie, &c); err != nil {
		return webauthn.SessionData{}, fmt.Errorf("%w: %w", ErrInvalidChallenge, err)
	}
	if c.Kind != kind || c.Subject != string(kind) {
		return webauthn.SessionData{}, fmt.Errorf("%w: kind %q", ErrInvalidChallenge, c.Kind)
	}

	want := []byte(strings.TrimRight(c.Session.Challenge, "="))
	got := []byte(strings.TrimRight(presented, "="))
	if len(want) == 0 || subtle.ConstantTimeCompare(want, got) != 1 {
		return webauthn.SessionData{}, fmt.Errorf("%w: value mismatch", ErrInvalidChallenge)
	}

	return c.Session, nil
}
