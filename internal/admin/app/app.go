package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/challenge"
	"github.com/aussiebroadwan/backoffice/internal/admin/domain"
	httpapi "github.com/aussiebroadwan/backoffice/internal/admin/http"
	"github.com/aussiebroadwan/backoffice/internal/admin/service"
	"github.com/aussiebroadwan/backoffice/internal/admin/session"
	"github.com/aussiebroadwan/backoffice/internal/admin/store"
	"github.com/aussiebroadwan/backoffice/internal/admin/store/drivers/memory"
	"github.com/aussiebroadwan/backoffice/internal/admin/store/drivers/postgres"
	"github.com/aussiebroadwan/backoffice/internal/admin/store/drivers/sqlite"
	"github.com/aussiebroadwan/backoffice/pkg/cryptox"
	"github.com/aussiebroadwan/backoffice/pkg/httpx"
	"github.com/aussiebroadwan/backoffice/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application wires the admin authentication service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	secret string

	sessions *session.Codec
	broker   *challenge.Broker

	passkeyService  *service.PasskeyService
	passwordService *service.PasswordService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "backoffice-admin",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	secret, err := resolveSecret(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.secret = secret

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the fully wired router.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("admin service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.DatabaseDriver,
		"rp_id", app.cfg.RPID,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down admin service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("admin service stopped")
	return nil
}

// resolveSecret picks ADMIN_SECRET, then ADMIN_SECRET_FILE; outside
// development either must be at least cryptox.MinSecretLength. Development gets
// an ephemeral secret; anywhere else an empty secret leaves authentication
// failing closed while the rest of the site keeps serving.
func resolveSecret(cfg Config, logger *slog.Logger) (string, error) {
	if cfg.Secret != "" {
		if len(cfg.Secret) < cryptox.MinSecretLength && !cfg.Development() {
			return "", fmt.Errorf("ADMIN_SECRET must be at least %d characters: %w",
				cryptox.MinSecretLength, cryptox.ErrSecretTooShort)
		}
		return cfg.Secret, nil
	}
	if cfg.SecretFile != "" {
		secret, err := cryptox.LoadSecretFile(cfg.SecretFile)
		if err != nil {
			return "", fmt.Errorf("failed to load ADMIN_SECRET_FILE: %w", err)
		}
		return secret, nil
	}

	if cfg.Development() {
		logger.Warn("ADMIN_SECRET not set; using an ephemeral secret, sessions end on restart")
		return cryptox.NewSecret()
	}

	logger.Error("ADMIN_SECRET not set; admin login is disabled")
	return "", nil
}

func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case DriverMemory:
		app.logger.Warn("using in-memory credential store; passkeys are lost on restart")
		db = memory.NewStore()
	case DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func (app *Application) initServices() error {
	admin := domain.NewAdmin(app.cfg.AdminEmail, app.cfg.AdminDisplayName)
	secret := []byte(app.secret)

	sessions, err := session.New(session.Config{
		Secret:  secret,
		Subject: admin.Email,
		Leeway:  app.cfg.ClockSkew,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize session codec: %w", err)
	}
	app.sessions = sessions

	broker, err := challenge.New(challenge.Config{
		Secret: secret,
		TTL:    app.cfg.ChallengeTTL,
		Leeway: app.cfg.ClockSkew,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize challenge broker: %w", err)
	}
	app.broker = broker

	wa, err := service.NewWebAuthn(service.RelyingParty{
		ID:          app.cfg.RPID,
		DisplayName: app.cfg.RPDisplayName,
		Origins:     app.cfg.RPOrigins,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize webauthn: %w", err)
	}

	app.passkeyService = &service.PasskeyService{
		Store:      app.db,
		WebAuthn:   wa,
		Broker:     broker,
		Sessions:   sessions,
		Admin:      admin,
		SessionTTL: app.cfg.SessionTTL,
		Timeout:    app.cfg.CeremonyTimeout,
	}

	app.passwordService = &service.PasswordService{
		Sessions:    sessions,
		Admin:       admin,
		Secret:      app.secret,
		Digest:      app.cfg.PasswordHash,
		TOTPSecret:  app.cfg.TOTPSecret,
		Development: app.cfg.Development(),
		SessionTTL:  app.cfg.SessionTTL,
	}

	if app.cfg.PasswordHash == "" {
		if app.cfg.Development() {
			app.logger.Warn("ADMIN_PASSWORD_HASH not set; password login accepts the development default")
		} else {
			app.logger.Warn("ADMIN_PASSWORD_HASH not set; password login is disabled")
		}
	}

	return nil
}

func (app *Application) accessConfig() httpx.AccessConfig {
	access := httpapi.DefaultAccessConfig(httpx.CookiePolicy{Secure: app.cfg.Production()})
	if len(app.cfg.ProtectedPrefixes) > 0 {
		access.Protected = app.cfg.ProtectedPrefixes
	}
	if len(app.cfg.AuthOnlyPrefixes) > 0 {
		access.AuthOnly = app.cfg.AuthOnlyPrefixes
	}
	if len(app.cfg.ExcludedPrefixes) > 0 {
		access.Excluded = app.cfg.ExcludedPrefixes
	}
	return access
}

func (app *Application) initHTTP() {
	// Validate has already rejected malformed entries.
	proxies, _ := httpx.ParseProxies(app.cfg.TrustedProxies)
	httpx.SetTrustedProxies(proxies)

	app.router = httpapi.NewRouter(BuildVersion, app.db, app.sessions, app.accessConfig(), app.logger)
	app.router.PasskeyService = app.passkeyService
	app.router.PasswordService = app.passwordService
	app.router.SecretConfigured = app.secret != ""
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
