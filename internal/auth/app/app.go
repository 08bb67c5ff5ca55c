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

	httpapi "github.com/aussiebroadwan/tuckshop/internal/auth/http"
	"github.com/aussiebroadwan/tuckshop/internal/auth/ledger"
	"github.com/aussiebroadwan/tuckshop/internal/auth/service"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tuckshop/pkg/cryptox"
	"github.com/aussiebroadwan/tuckshop/pkg/httpx"
	"github.com/aussiebroadwan/tuckshop/pkg/jwtx"
	"github.com/aussiebroadwan/tuckshop/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

// BuildVersion is overridden at build time with -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the session service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	ledger ledger.Ledger
	redis  *redis.Client // nil unless SESSION_BACKEND=redis
	hasher *cryptox.PasswordHasher
	tokens *service.PairIssuer

	// Services
	sessionService      *service.SessionService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tuckshop-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := initSentry(cfg.SentryDSN, cfg.Env); err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initLedger(ctx); err != nil {
		app.closeStores()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.closeStores()
		return nil, err
	}
	if err := app.seedAdmin(ctx); err != nil {
		app.closeStores()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	defer flushSentry()

	app.housekeepingService.Start()

	app.logger.Info("session service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"database", app.cfg.DatabaseDriver,
		"sessions", app.cfg.SessionBackend,
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
			app.housekeepingService.Stop()
			app.closeStores()
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
	app.logger.Info("shutting down session service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("session service stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initLedger picks where issued refresh tokens are recorded
func (app *Application) initLedger(ctx context.Context) error {
	if app.cfg.SessionBackend != SessionsRedis {
		app.ledger = ledger.NewSQLLedger(app.db)
		return nil
	}

	client, err := ledger.OpenRedis(ctx, ledger.RedisConfig{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = client
	app.ledger = ledger.NewRedisLedger(client, "tuckshop:")

	app.logger.Info("refresh tokens recorded in redis", "addr", app.cfg.RedisAddr)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	secrets, err := jwtx.NewSecrets(app.cfg.AccessSecret, app.cfg.RefreshSecret)
	if err != nil {
		return fmt.Errorf("failed to load token secrets: %w", err)
	}

	app.hasher, err = cryptox.NewPasswordHasher(app.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to configure password hashing: %w", err)
	}

	app.tokens = &service.PairIssuer{
		Secrets:    secrets,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.sessionService = &service.SessionService{
		Store:  app.db,
		Ledger: app.ledger,
		Tokens: app.tokens,
		Hasher: app.hasher,
	}
	app.bootstrapService = &service.BootstrapService{
		Store:  app.db,
		Hasher: app.hasher,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.sessionService,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// seedAdmin creates the configured ADMIN account on first start
func (app *Application) seedAdmin(ctx context.Context) error {
	if !app.cfg.HasAdmin() {
		return nil
	}

	created, err := app.bootstrapService.EnsureAdmin(slogx.WithContext(ctx, app.logger), service.AdminAccount{
		Email:    app.cfg.AdminEmail,
		Username: app.cfg.AdminUsername,
		Password: app.cfg.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}
	if !created {
		app.logger.Info("admin account already present", "username", app.cfg.AdminUsername)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	authn := &httpx.Authenticator{
		Verifier:          app.tokens.Codec,
		Secret:            app.tokens.Secrets.Access(),
		Issuer:            app.cfg.Issuer,
		Audience:          app.cfg.Audience,
		EmbedDisplayNames: app.cfg.EmbedDisplayNames,
	}

	router := httpapi.NewRouter(authn, BuildVersion, app.db, app.ledger, app.logger)
	router.SessionService = app.sessionService
	router.Cookie = httpapi.CookieConfig{
		Secure:        app.cfg.CookieSecure,
		ReturnRotated: app.cfg.ReturnRotated,
	}
	// Validated in New.
	router.Proxies, _ = httpx.ParseTrustedProxies(app.cfg.TrustedProxies...)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
