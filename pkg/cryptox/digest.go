package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// DigestPrefix marks a keyed HMAC-SHA256 digest produced by Digest.
const DigestPrefix = "hmac-sha256$"

// Digest derives a deterministic keyed digest of plaintext using the server
// secret. It is a plain keyed hash, not a password KDF: use HashPassword when a
// memory-hard digest is wanted.
//
// Format: hmac-sha256$<base64url(HMAC-SHA256(secret, plaintext))>
func Digest(plaintext, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(plaintext))
	return DigestPrefix + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyDigest recomputes the keyed digest of plaintext and compares it with
// stored in constant time. Malformed stored values simply do not match.
func VerifyDigest(plaintext, secret, stored string) bool {
	if !strings.HasPrefix(stored, DigestPrefix) {
		return false
	}

	want, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(stored, DigestPrefix))
	if err != nil || len(want) != sha256.Size {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(plaintext))
	return subtle.ConstantTimeCompare(mac.Sum(nil), want) == 1
}

// VerifyAdminPassword checks plaintext against a configured admin digest. The
// digest may either be a keyed digest (see Digest) or an Argon2id PHC string
// peppered with the same secret (see HashPassword).
func VerifyAdminPassword(plaintext, secret, stored string) bool {
	switch {
	case strings.HasPrefix(stored, "$argon2id$"):
		return VerifyPassword(plaintext, secret, stored) == nil
	default:
		return VerifyDigest(plaintext, secret, stored)
	}
}
