package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPepper = "test-pepper-0123456789abcdef0123456789"

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, testPepper)
			require.NoError(t, err)

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.Equal(t, "argon2id", parts[1])
			require.Equal(t, "v=19", parts[2])
			require.Equal(t, "m=19456,t=2,p=1", parts[3])
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")

			require.NoError(t, VerifyPassword(tt.password, testPepper, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := HashPassword("samepassword", testPepper)
	require.NoError(t, err)
	hash2, err := HashPassword("samepassword", testPepper)
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
	require.NoError(t, VerifyPassword("samepassword", testPepper, hash1))
	require.NoError(t, VerifyPassword("samepassword", testPepper, hash2))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct-password", testPepper)
	require.NoError(t, err)

	for _, wrong := range []string{"wrong-password", "Correct-password", "correct-password ", ""} {
		require.ErrorIs(t, VerifyPassword(wrong, testPepper, hash), ErrPasswordMismatch, wrong)
	}
}

func TestVerifyPassword_WrongPepper(t *testing.T) {
	hash, err := HashPassword("correct-password", testPepper)
	require.NoError(t, err)

	require.ErrorIs(t, VerifyPassword("correct-password", "other-pepper", hash), ErrPasswordMismatch)
}

func TestVerifyPassword_InvalidHashFormat(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not phc", "plaintext"},
		{"wrong algorithm", "$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"bad params", "$argon2id$v=19$garbage$c2FsdA$aGFzaA"},
		{"bad salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA"},
		{"bad hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyPassword("password", testPepper, tt.hash)
			require.Error(t, err)
			require.NotErrorIs(t, err, ErrPasswordMismatch)
		})
	}
}

func TestGeneratePassword(t *testing.T) {
	password, err := GeneratePassword()
	require.NoError(t, err)
	require.Len(t, password, 16)

	for _, c := range password {
		require.True(t,
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'),
			"unexpected character %q", c)
	}

	other, err := GeneratePassword()
	require.NoError(t, err)
	require.NotEqual(t, password, other)
}

func TestVerifyPassword_RejectsExpensiveParameters(t *testing.T) {
	hash := "$argon2id$v=19$m=4194304,t=2,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"
	require.ErrorIs(t, VerifyPassword("password", testPepper, hash), ErrInvalidHash)
}

func TestVerifyPassword_HonoursStoredParameters(t *testing.T) {
	cheap := Argon2Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, KeyLength: 16, SaltLength: 8}
	salt := []byte("saltsalt")
	hash := cheap.encode(salt, cheap.derive("hunter2", testPepper, salt))

	require.Contains(t, hash, "m=8192,t=1,p=1")
	require.NoError(t, VerifyPassword("hunter2", testPepper, hash))
	require.ErrorIs(t, VerifyPassword("hunter3", testPepper, hash), ErrPasswordMismatch)
}
