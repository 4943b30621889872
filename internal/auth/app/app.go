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

	httpapi "github.com/aussiebroadwan/fintrack/internal/auth/http"
	"github.com/aussiebroadwan/fintrack/internal/auth/service"
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/fintrack/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/fintrack/pkg/cryptox"
	"github.com/aussiebroadwan/fintrack/pkg/httpx"
	"github.com/aussiebroadwan/fintrack/pkg/jwtx"
	"github.com/aussiebroadwan/fintrack/pkg/obsx"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"
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
	db      store.Store
	secrets Secrets

	// Services
	tokenService        *service.TokenService
	authService         *service.AuthService
	userService         *service.UserService
	rateLimiter         *service.RateLimiter
	captchaService      *service.CaptchaService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "fintrack-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := obsx.InitSentry(cfg.SentryDSN, cfg.Env, BuildVersion); err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	secrets, err := LoadSecrets(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.secrets = secrets

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.seedAdmin(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion, "driver", app.cfg.DatabaseDriver)

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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")
	defer obsx.FlushSentry()

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	case "postgres":
		if app.cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", app.cfg.DatabaseDriver)
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

// initServices initializes all business logic services
func (app *Application) initServices() error {
	access, err := jwtx.NewHS256(app.secrets.Access, app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("access token signer: %w", err)
	}
	refresh, err := jwtx.NewHS256(app.secrets.Refresh, app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("refresh token signer: %w", err)
	}

	app.tokenService = &service.TokenService{
		Store:      app.db,
		Access:     access,
		Refresh:    refresh,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	app.authService = &service.AuthService{Store: app.db, Tokens: app.tokenService}
	app.userService = &service.UserService{Store: app.db, Tokens: app.tokenService}
	app.rateLimiter = &service.RateLimiter{
		Store:       app.db,
		MaxAttempts: app.cfg.RateLimitMaxAttempts,
		Window:      app.cfg.RateLimitWindow,
		BanDuration: app.cfg.RateLimitBan,
	}
	app.captchaService = &service.CaptchaService{Store: app.db, Secret: app.secrets.Captcha}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.RateLimitRetention,
	)

	return nil
}

// seedAdmin creates the first admin from ADMIN_* when none exists yet.
func (app *Application) seedAdmin(ctx context.Context) error {
	if !app.cfg.SeedAdmin() {
		return nil
	}

	ctx = slogx.WithContext(ctx, app.logger)
	created, err := app.authService.EnsureAdmin(ctx, app.cfg.AdminUsername, app.cfg.AdminEmail, app.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if created {
		app.logger.Info("seed admin created", "username", app.cfg.AdminUsername)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	proxies, err := httpx.ParseTrustedProxies(app.cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.TrustedProxies = proxies

	router.AuthService = app.authService
	router.UserService = app.userService
	router.RateLimiter = app.rateLimiter
	router.CaptchaService = app.captchaService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
