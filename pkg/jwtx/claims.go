package jwtx

import (
	"time"

	"github.com/aussiebroadwan/backoffice/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL applies when a caller passes a zero session lifetime.
const DefaultSessionTTL = 24 * time.Hour

// Claims carry the registered claims plus "amr", the authentication methods
// that produced the token (see the session package for the values).
type Claims struct {
	jwt.RegisteredClaims

	AMR []string `json:"amr,omitempty"`
}

// NewClaims returns claims for subject valid over [now, now+ttl] with a fresh
// jti.
func NewClaims(subject, issuer string, amr []string, ttl time.Duration, now time.Time) Claims {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        NewJTI(),
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		AMR: amr,
	}
}

// NewJTI returns a 128-bit random token id.
func NewJTI() string {
	id, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		panic("jwtx: " + err.Error())
	}
	return id
}
