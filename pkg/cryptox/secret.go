package cryptox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MinSecretLength is the shortest server secret accepted outside development.
const MinSecretLength = 32

// ErrSecretTooShort is returned when a loaded secret is shorter than MinSecretLength.
var ErrSecretTooShort = errors.New("cryptox: secret too short")

// LoadSecretFile reads a server secret from a mounted file (docker/k8s secret).
// Surrounding whitespace is trimmed.
func LoadSecretFile(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("cryptox: read secret file: %w", err)
	}

	secret := strings.TrimSpace(string(data))
	if len(secret) < MinSecretLength {
		return "", ErrSecretTooShort
	}
	return secret, nil
}

// WriteSecretFile generates a fresh secret and writes it to path with 0600
// permissions. Used by cmd/hashpw to bootstrap a deployment.
func WriteSecretFile(path string) (string, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}

	secret, err := NewSecret()
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(secret), 0o600); err != nil {
		return "", err
	}
	return secret, nil
}
