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

	httpapi "github.com/shelfmark/catalogue/internal/auth/http"
	"github.com/shelfmark/catalogue/internal/auth/notify"
	"github.com/shelfmark/catalogue/internal/auth/service"
	"github.com/shelfmark/catalogue/internal/auth/store"
	"github.com/shelfmark/catalogue/internal/auth/store/drivers/postgres"
	"github.com/shelfmark/catalogue/internal/auth/store/drivers/sqlite"
	"github.com/shelfmark/catalogue/pkg/cryptox"
	"github.com/shelfmark/catalogue/pkg/jwtx"
	"github.com/shelfmark/catalogue/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	hasher   *cryptox.Argon2Hasher
	signer   jwtx.Signer
	access   jwtx.Verifier
	verify   jwtx.Verifier
	notifier notify.Sender

	// Services
	authService   *service.AuthService
	reaperService *service.ReaperService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()
	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initSecurity(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	notifier, err := newNotifier(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize mail driver: %w", err)
	}
	app.notifier = notifier

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.reaperService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.reaperService.Stop()
			_ = app.db.Close()
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

// Shutdown stops the server, then the reaper, then closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.reaperService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(sqliteDSN(app.cfg.DatabaseFile))
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

// initSecurity loads the pepper and builds the token signer and verifiers.
func (app *Application) initSecurity() error {
	pepper, err := cryptox.LoadPepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewArgon2Hasher(pepper)

	secret := []byte(app.cfg.JWTSecret)
	signer, err := jwtx.NewHS256Signer(secret)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer
	app.logger.Info("token signer configured", "alg", signer.Alg(), "issuer", app.cfg.Issuer)

	app.access, err = jwtx.NewHS256Verifier(secret, jwtx.VerifyOptions{
		Issuer:   app.cfg.Issuer,
		Audience: app.cfg.Audience,
		Type:     jwtx.TypeAccess,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize access verifier: %w", err)
	}

	// The stored verification record decides expiry; the leeway only keeps
	// the JWT check from rejecting a link before the record is consulted.
	app.verify, err = jwtx.NewHS256Verifier(secret, jwtx.VerifyOptions{
		Issuer: app.cfg.Issuer,
		Type:   jwtx.TypeVerification,
		Leeway: app.cfg.VerificationLeeway,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize verification verifier: %w", err)
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:  app.db,
		Hasher: app.hasher,
		Tokens: service.TokenIssuer{
			Signer:       app.signer,
			Verification: app.verify,
		},
		Notifier: app.notifier,
		Now:      time.Now,
		Config: service.AuthConfig{
			Issuer:          app.cfg.Issuer,
			Audience:        app.cfg.Audience,
			AccessTTL:       app.cfg.AccessTokenTTL,
			VerificationTTL: app.cfg.VerificationTokenTTL,
			OTPTTL:          app.cfg.OTPTTL,
			AppURL:          app.cfg.AppURL,
		},
	}

	app.reaperService = service.NewReaperService(
		app.db,
		app.logger,
		app.cfg.ReaperInterval,
		time.Now,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.access,
		BuildVersion,
		app.db,
		app.logger,
	)
	router.AuthService = app.authService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// newNotifier builds the outbound mail driver named by MAIL_DRIVER, wrapped
// in a rate limiter.
func newNotifier(cfg Config, logger *slog.Logger) (notify.Sender, error) {
	var (
		sender notify.Sender
		err    error
	)
	switch cfg.MailDriver {
	case MailDriverSMTP:
		sender, err = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	case MailDriverResend:
		sender, err = notify.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom)
	case MailDriverLog, "":
		sender = notify.NewLogSender(logger)
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.MailDriver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("mail driver configured", "driver", cfg.MailDriver)
	return notify.NewThrottled(sender, cfg.MailRatePerSecond, cfg.MailBurst), nil
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}
