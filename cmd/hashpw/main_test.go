package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/backoffice/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestReadPassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "newline", input: "hunter2\n", want: "hunter2"},
		{name: "crlf", input: "hunter2\r\n", want: "hunter2"},
		{name: "no newline", input: "hunter2", want: "hunter2"},
		{name: "first line only", input: "hunter2\nsecond\n", want: "hunter2"},
		{name: "inner spaces kept", input: " two words \n", want: " two words "},
		{name: "empty", input: "", wantErr: true},
		{name: "blank line", input: "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readPassword(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLoadSecret(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing")
	fileSecret, err := cryptox.WriteSecretFile(existing)
	require.NoError(t, err)

	const envSecret = "env-secret-0123456789abcdef0123456789"

	tests := []struct {
		name       string
		env        string
		secretFile string
		writeTo    string
		want       string
		wantErr    bool
	}{
		{name: "env", env: envSecret, want: envSecret},
		{name: "env wins over file", env: envSecret, secretFile: existing, want: envSecret},
		{name: "file", secretFile: existing, want: fileSecret},
		{name: "missing file", secretFile: filepath.Join(dir, "absent"), wantErr: true},
		{name: "write secret", env: envSecret, writeTo: filepath.Join(dir, "new", "secret")},
		{name: "nothing configured", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ADMIN_SECRET", tt.env)

			got, err := loadSecret(tt.secretFile, tt.writeTo)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.writeTo == "" {
				require.Equal(t, tt.want, got)
				return
			}

			// A written secret is fresh and replaces anything in the environment.
			require.NotEqual(t, envSecret, got)
			data, err := os.ReadFile(tt.writeTo)
			require.NoError(t, err)
			require.Equal(t, got, string(data))

			info, err := os.Stat(tt.writeTo)
			require.NoError(t, err)
			require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
		})
	}
}
