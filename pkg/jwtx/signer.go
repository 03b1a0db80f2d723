package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyLength is the shortest HMAC key accepted for HS256 (256 bits).
const MinKeyLength = 32

// ErrWeakKey is returned when an HMAC key is shorter than MinKeyLength.
var ErrWeakKey = errors.New("jwtx: hmac key too short")

// HS256Signer signs claims with a shared server secret (HMAC SHA-256).
type HS256Signer struct {
	kid string
	key []byte
}

// NewSignerHS256 creates an HS256 signer. The kid is optional and only
// written to the header when set.
func NewSignerHS256(kid string, key []byte) (*HS256Signer, error) {
	s := &HS256Signer{kid: kid, key: append([]byte(nil), key...)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return s.kid }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if s.kid != "" {
		t.Header["kid"] = s.kid
	}
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Validate does a quick sanity check on the key material.
func (s *HS256Signer) Validate() error {
	if len(s.key) < MinKeyLength {
		return fmt.Errorf("%w: %d bytes, need %d", ErrWeakKey, len(s.key), MinKeyLength)
	}
	return nil
}
