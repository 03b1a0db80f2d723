// Package session issues and verifies the stateless admin session token
// carried in the admin-session cookie.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/backoffice/pkg/cryptox"
	"github.com/aussiebroadwan/backoffice/pkg/jwtx"
)

// Issuer is written to and required in every session token.
const Issuer = "backoffice"

// Authentication methods recorded in the token.
const (
	MethodPassword = "pwd"
	MethodOTP      = "otp"
	MethodPasskey  = "hwk"
)

var (
	// ErrMisconfigured means no server secret is available, so sessions can
	// neither be minted nor checked.
	ErrMisconfigured = errors.New("session: server secret not configured")

	// ErrInvalid covers every rejected token: bad signature, expired, wrong
	// issuer or subject, malformed.
	ErrInvalid = errors.New("session: invalid token")
)

// Principal is the verified content of a session token.
type Principal struct {
	Subject   string
	Methods   []string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (p Principal) PrincipalID() string { return p.Subject }

// Token is a freshly issued session.
type Token struct {
	Value     string
	Subject   string
	Methods   []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Config struct {
	// Secret is the server secret; an empty secret yields a codec that
	// answers ErrMisconfigured.
	Secret []byte

	// Subject, when set, is the only principal Verify accepts.
	Subject string

	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway time.Duration

	Now func() time.Time
}

// Codec issues and verifies session tokens. It is safe for concurrent use.
type Codec struct {
	signer   *jwtx.HS256Signer
	verifier *jwtx.HS256Verifier
	subject  string
	now      func() time.Time
}

func New(cfg Config) (*Codec, error) {
	c := &Codec{subject: cfg.Subject, now: cfg.Now}
	if c.now == nil {
		c.now = time.Now
	}
	if len(cfg.Secret) == 0 {
		return c, nil
	}

	key := cryptox.DeriveKey(cfg.Secret, "admin-session")

	signer, err := jwtx.NewSignerHS256("", key)
	if err != nil {
		return nil, err
	}
	verifier, err := jwtx.NewVerifierHS256(key, jwtx.VerifyOptions{
		Issuer: Issuer,
		Leeway: cfg.Leeway,
		Now:    c.now,
	})
	if err != nil {
		return nil, err
	}

	c.signer, c.verifier = signer, verifier
	return c, nil
}

// Issue mints a token for principal valid for ttl from now.
func (c *Codec) Issue(principal string, ttl time.Duration, methods ...string) (Token, error) {
	if c.signer == nil {
		return Token{}, ErrMisconfigured
	}
	if principal == "" || ttl <= 0 {
		return Token{}, fmt.Errorf("session: issue: empty principal or non-positive ttl")
	}

	// JWT NumericDate is whole seconds; truncate so the returned times match
	// what Verify will report.
	now := c.now().UTC().Truncate(time.Second)
	claims := jwtx.NewClaims(principal, Issuer, methods, ttl, now)

	value, err := c.signer.Sign(claims)
	if err != nil {
		return Token{}, err
	}

	return Token{
		Value:     value,
		Subject:   principal,
		Methods:   methods,
		IssuedAt:  now,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify recomputes the signature and checks expiry, returning the embedded
// principal.
func (c *Codec) Verify(token string) (Principal, error) {
	if c.verifier == nil {
		return Principal{}, ErrMisconfigured
	}
	if token == "" {
		return Principal{}, ErrInvalid
	}

	var claims jwtx.Claims
	if err := c.verifier.Verify(token, &claims); err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if claims.Subject == "" || (c.subject != "" && claims.Subject != c.subject) {
		return Principal{}, fmt.Errorf("%w: unexpected subject", ErrInvalid)
	}

	p := Principal{
		Subject:   claims.Subject,
		Methods:   claims.AMR,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.UTC(),
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.UTC()
	}
	return p, nil
}
