package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/backoffice/pkg/httpx"
	"github.com/caarlos0/env/v11"
)

// Store drivers selectable with ADMIN_DATABASE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the admin service configuration loaded from environment variables.
type Config struct {
	Env                 string        `env:"ENV"                   envDefault:"dev"`  // Environment (dev, test, prod)
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"` // debug, info, warn, error
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"` // json, text
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	AdminEmail       string `env:"ADMIN_EMAIL"        envDefault:"admin@localhost"`
	AdminDisplayName string `env:"ADMIN_DISPLAY_NAME"`

	// Secret keys session tokens, challenge bindings and the keyed password
	// digest. SecretFile is read when Secret is empty.
	Secret     string `env:"ADMIN_SECRET"`
	SecretFile string `env:"ADMIN_SECRET_FILE"`

	PasswordHash string `env:"ADMIN_PASSWORD_HASH"` // hmac-sha256$... or $argon2id$...
	TOTPSecret   string `env:"ADMIN_TOTP_SECRET"`

	SessionTTL      time.Duration `env:"ADMIN_SESSION_TTL"      envDefault:"24h"`
	ClockSkew       time.Duration `env:"ADMIN_CLOCK_SKEW"       envDefault:"30s"`
	ChallengeTTL    time.Duration `env:"ADMIN_CHALLENGE_TTL"    envDefault:"5m"`
	CeremonyTimeout time.Duration `env:"ADMIN_CEREMONY_TIMEOUT" envDefault:"10s"`

	DatabaseDriver string `env:"ADMIN_DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseFile   string `env:"ADMIN_DATABASE_FILE"   envDefault:"backoffice.db"`
	DatabaseURL    string `env:"ADMIN_DATABASE_URL"`

	RPID          string   `env:"WEBAUTHN_RP_ID"           envDefault:"localhost"`
	RPDisplayName string   `env:"WEBAUTHN_RP_DISPLAY_NAME" envDefault:"Back Office"`
	RPOrigins     []string `env:"WEBAUTHN_RP_ORIGINS"      envDefault:"http://localhost:8080" envSeparator:","`

	// Prefix overrides; empty keeps the built-in classification.
	ProtectedPrefixes []string `env:"ADMIN_PROTECTED_PREFIXES" envSeparator:","`
	AuthOnlyPrefixes  []string `env:"ADMIN_AUTH_ONLY_PREFIXES" envSeparator:","`
	ExcludedPrefixes  []string `env:"ADMIN_EXCLUDED_PREFIXES"  envSeparator:","`

	// TrustedProxies may report the client address in X-Forwarded-For. Empty
	// means rate limits key on the connection address only.
	TrustedProxies []string `env:"RATELIMIT_TRUSTED_PROXIES" envSeparator:","`
}

// LoadConfig parses the environment and validates the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Development reports whether development fallbacks (default password,
// ephemeral secret) are allowed.
func (c Config) Development() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Production enables Secure cookies.
func (c Config) Production() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("ADMIN_DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("ADMIN_DATABASE_URL is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown ADMIN_DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	if c.AdminEmail == "" {
		errs = append(errs, errors.New("ADMIN_EMAIL is required"))
	}
	if c.RPID == "" || len(c.RPOrigins) == 0 {
		errs = append(errs, errors.New("WEBAUTHN_RP_ID and WEBAUTHN_RP_ORIGINS are required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("ADMIN_SESSION_TTL must be positive"))
	}
	if c.ClockSkew < 0 {
		errs = append(errs, errors.New("ADMIN_CLOCK_SKEW must not be negative"))
	}
	if _, err := httpx.ParseProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("RATELIMIT_TRUSTED_PROXIES: %w", err))
	}

	return errors.Join(errs...)
}
