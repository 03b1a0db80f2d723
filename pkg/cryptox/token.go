package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Random sizes in bytes, before base64url encoding.
const (
	TokenSize128 = 16 // 22 chars
	TokenSize256 = 32 // 43 chars
	TokenSize512 = 64 // 86 chars, server secrets
)

// GenerateToken returns size random bytes, base64url encoded without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewSecret returns a fresh server secret suitable for ADMIN_SECRET.
func NewSecret() (string, error) {
	return GenerateToken(TokenSize512)
}

// Fingerprint is a short stable digest of v for logs and limiter keys.
// Credential ids, ceremony cookies and session tokens go through here rather
// than being logged raw.
func Fingerprint(v string) string {
	sum := sha256.Sum256([]byte(v))
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}
