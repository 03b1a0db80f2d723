package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigest_Deterministic(t *testing.T) {
	a := Digest("hunter2", testPepper)
	b := Digest("hunter2", testPepper)

	require.Equal(t, a, b)
	require.True(t, strings.HasPrefix(a, DigestPrefix))
	require.Len(t, strings.TrimPrefix(a, DigestPrefix), 43)
}

func TestDigest_DependsOnInputs(t *testing.T) {
	base := Digest("hunter2", testPepper)

	require.NotEqual(t, base, Digest("hunter3", testPepper), "different plaintext")
	require.NotEqual(t, base, Digest("hunter2", testPepper+"x"), "different secret")
	require.NotEqual(t, Digest("", testPepper), Digest("", ""), "empty plaintext still keyed")
}

func TestVerifyDigest(t *testing.T) {
	stored := Digest("hunter2", testPepper)

	tests := []struct {
		name      string
		plaintext string
		secret    string
		stored    string
		want      bool
	}{
		{"match", "hunter2", testPepper, stored, true},
		{"wrong plaintext", "hunter3", testPepper, stored, false},
		{"wrong secret", "hunter2", "nope", stored, false},
		{"missing prefix", "hunter2", testPepper, strings.TrimPrefix(stored, DigestPrefix), false},
		{"truncated", "hunter2", testPepper, stored[:len(stored)-2], false},
		{"not base64", "hunter2", testPepper, DigestPrefix + "!!!!", false},
		{"empty stored", "hunter2", testPepper, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, VerifyDigest(tt.plaintext, tt.secret, tt.stored))
		})
	}
}

func TestVerifyAdminPassword(t *testing.T) {
	argon, err := HashPassword("hunter2", testPepper)
	require.NoError(t, err)
	keyed := Digest("hunter2", testPepper)

	require.True(t, VerifyAdminPassword("hunter2", testPepper, keyed))
	require.True(t, VerifyAdminPassword("hunter2", testPepper, argon))
	require.False(t, VerifyAdminPassword("wrong", testPepper, keyed))
	require.False(t, VerifyAdminPassword("wrong", testPepper, argon))
	require.False(t, VerifyAdminPassword("hunter2", testPepper, ""))
}
