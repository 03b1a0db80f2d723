package app

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/service"
	"github.com/aussiebroadwan/backoffice/pkg/adminapi"
	"github.com/aussiebroadwan/backoffice/pkg/cryptox"
	"github.com/aussiebroadwan/backoffice/pkg/httpx"
	"github.com/aussiebroadwan/backoffice/pkg/slogx"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"ENV", "LOG_LEVEL", "LOG_FORMAT", "PORT", "SHUTDOWN_GRACE_PERIOD",
	"ADMIN_EMAIL", "ADMIN_DISPLAY_NAME", "ADMIN_SECRET", "ADMIN_SECRET_FILE",
	"ADMIN_PASSWORD_HASH", "ADMIN_TOTP_SECRET", "ADMIN_SESSION_TTL", "ADMIN_CLOCK_SKEW",
	"ADMIN_CHALLENGE_TTL", "ADMIN_CEREMONY_TIMEOUT", "ADMIN_DATABASE_DRIVER",
	"ADMIN_DATABASE_FILE", "ADMIN_DATABASE_URL", "WEBAUTHN_RP_ID",
	"WEBAUTHN_RP_DISPLAY_NAME", "WEBAUTHN_RP_ORIGINS", "ADMIN_PROTECTED_PREFIXES",
	"ADMIN_AUTH_ONLY_PREFIXES", "ADMIN_EXCLUDED_PREFIXES", "RATELIMIT_TRUSTED_PROXIES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, "admin@localhost", cfg.AdminEmail)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, 30*time.Second, cfg.ClockSkew)
	require.Equal(t, 5*time.Minute, cfg.ChallengeTTL)
	require.Equal(t, 10*time.Second, cfg.CeremonyTimeout)
	require.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	require.Equal(t, "localhost", cfg.RPID)
	require.Equal(t, []string{"http://localhost:8080"}, cfg.RPOrigins)
	require.True(t, cfg.Development())
	require.False(t, cfg.Production())
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "prod")
	t.Setenv("ADMIN_SESSION_TTL", "2h")
	t.Setenv("ADMIN_DATABASE_DRIVER", "postgres")
	t.Setenv("ADMIN_DATABASE_URL", "postgres://u:p@db/backoffice")
	t.Setenv("WEBAUTHN_RP_ID", "example.com")
	t.Setenv("WEBAUTHN_RP_ORIGINS", "https://example.com,https://www.example.com")
	t.Setenv("ADMIN_PROTECTED_PREFIXES", "/admin,/api/admin,/reports")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.True(t, cfg.Production())
	require.False(t, cfg.Development())
	require.Equal(t, 2*time.Hour, cfg.SessionTTL)
	require.Equal(t, []string{"https://example.com", "https://www.example.com"}, cfg.RPOrigins)
	require.Equal(t, []string{"/admin", "/api/admin", "/reports"}, cfg.ProtectedPrefixes)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"ADMIN_DATABASE_DRIVER": "mongo"}},
		{name: "postgres without url", env: map[string]string{"ADMIN_DATABASE_DRIVER": "postgres"}},
		{name: "negative skew", env: map[string]string{"ADMIN_CLOCK_SKEW": "-1s"}},
		{name: "bad duration", env: map[string]string{"ADMIN_SESSION_TTL": "soon"}},
		{name: "bad trusted proxy", env: map[string]string{"RATELIMIT_TRUSTED_PROXIES": "10.0.0.0/8,proxy.internal"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestResolveSecret(t *testing.T) {
	log := slogx.Discard()

	const envSecret = "from-env-0123456789abcdef0123456789"
	secret, err := resolveSecret(Config{Env: "prod", Secret: envSecret}, log)
	require.NoError(t, err)
	require.Equal(t, envSecret, secret)

	_, err = resolveSecret(Config{Env: "prod", Secret: "x"}, log)
	require.ErrorIs(t, err, cryptox.ErrSecretTooShort)

	secret, err = resolveSecret(Config{Env: "dev", Secret: "x"}, log)
	require.NoError(t, err, "development accepts any explicit secret")
	require.Equal(t, "x", secret)

	path := filepath.Join(t.TempDir(), "secret")
	written, err := cryptox.WriteSecretFile(path)
	require.NoError(t, err)
	secret, err = resolveSecret(Config{Env: "prod", SecretFile: path}, log)
	require.NoError(t, err)
	require.Equal(t, written, secret)

	short := filepath.Join(t.TempDir(), "short")
	require.NoError(t, os.WriteFile(short, []byte("tiny"), 0o600))
	_, err = resolveSecret(Config{Env: "prod", SecretFile: short}, log)
	require.ErrorIs(t, err, cryptox.ErrSecretTooShort)

	secret, err = resolveSecret(Config{Env: "dev"}, log)
	require.NoError(t, err)
	require.NotEmpty(t, secret, "development gets an ephemeral secret")

	secret, err = resolveSecret(Config{Env: "prod"}, log)
	require.NoError(t, err)
	require.Empty(t, secret)
}

func newTestApp(t *testing.T, mutate func(*Config)) *httptest.Server {
	t.Helper()
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ADMIN_DATABASE_DRIVER", DriverMemory)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	if mutate != nil {
		mutate(&cfg)
	}

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestApplication_DevelopmentLogin(t *testing.T) {
	srv := newTestApp(t, nil)
	c := adminapi.NewClient(srv.URL)

	out, err := c.Login(t.Context(), adminapi.LoginRequest{Password: service.DefaultDevPassword})
	require.NoError(t, err)
	require.Equal(t, "admin@localhost", out.Principal)

	resp, err := c.Get(t.Context(), "/admin")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApplication_ProductionWithoutSecret(t *testing.T) {
	srv := newTestApp(t, func(cfg *Config) { cfg.Env = "prod" })
	c := adminapi.NewClient(srv.URL)

	_, err := c.Login(t.Context(), adminapi.LoginRequest{Password: service.DefaultDevPassword})
	require.ErrorIs(t, err, adminapi.ErrMisconfigured)

	health, err := c.Readiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "degraded", health.Status)

	// The public site is unaffected.
	resp, err := c.Get(t.Context(), "/")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApplication_ConfiguredDigest(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef-app-secret"
	srv := newTestApp(t, func(cfg *Config) {
		cfg.Env = "prod"
		cfg.Secret = secret
		cfg.PasswordHash = cryptox.Digest("correct horse", secret)
	})
	c := adminapi.NewClient(srv.URL)

	_, err := c.Login(t.Context(), adminapi.LoginRequest{Password: service.DefaultDevPassword})
	require.ErrorIs(t, err, adminapi.ErrInvalidCredentials)

	_, err = c.Login(t.Context(), adminapi.LoginRequest{Password: "correct horse"})
	require.NoError(t, err)
}

func TestApplication_ShortSecretRefusedOutsideDevelopment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ENV", "prod")
	t.Setenv("ADMIN_SECRET", "x")
	t.Setenv("ADMIN_PASSWORD_HASH", cryptox.Digest("correct horse", "x"))
	t.Setenv("ADMIN_DATABASE_DRIVER", DriverMemory)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	_, err = New(cfg)
	require.ErrorIs(t, err, cryptox.ErrSecretTooShort)
}

func TestApplication_TrustedProxies(t *testing.T) {
	t.Cleanup(func() { httpx.SetTrustedProxies(nil) })
	newTestApp(t, func(cfg *Config) { cfg.TrustedProxies = []string{"10.0.0.0/8"} })

	trusted := httpx.TrustedProxies()
	require.Len(t, trusted, 1)
	require.True(t, trusted.Contains(netip.MustParseAddr("10.1.2.3")))
}

func TestApplication_PrefixOverrides(t *testing.T) {
	srv := newTestApp(t, func(cfg *Config) {
		cfg.ProtectedPrefixes = []string{"/admin", "/api/admin", "/drafts"}
	})
	c := adminapi.NewClient(srv.URL)

	resp, err := c.Get(t.Context(), "/drafts/spring")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin/login?next=%2Fdrafts%2Fspring", resp.Header.Get("Location"))
}
