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

	"github.com/redis/go-redis/v9"
	"github.com/tukcommunity/backend/internal/accounts/blacklist"
	httpapi "github.com/tukcommunity/backend/internal/accounts/http"
	"github.com/tukcommunity/backend/internal/accounts/service"
	"github.com/tukcommunity/backend/internal/accounts/store"
	"github.com/tukcommunity/backend/internal/accounts/store/drivers/mysql"
	"github.com/tukcommunity/backend/internal/accounts/store/drivers/sqlite"
	"github.com/tukcommunity/backend/pkg/cryptox"
	"github.com/tukcommunity/backend/pkg/jwtx"
	"github.com/tukcommunity/backend/pkg/slogx"
)

// ServiceName tags every log line.
const ServiceName = "tukcommunity-backend"

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the accounts service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        store.Store
	redis     *redis.Client // nil unless the redis blacklist is configured
	jwt       *jwtx.HS256
	blacklist blacklist.Blacklist

	// Services
	signupService       *service.SignupService
	tokenService        *service.TokenService
	rolesService        *service.RolesService
	housekeepingService *service.HousekeepingService
	running             bool

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg and installs it as default.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: ServiceName,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	if cfg.SecretKeyGenerated {
		app.logger.Warn("SECRET_KEY not set, using a random signing key; tokens will not survive a restart")
	}
	ConfigurePepper(cfg)

	var err error
	app.db, err = OpenStore(cfg, app.logger)
	if err != nil {
		return nil, err
	}

	app.jwt, err = jwtx.NewHS256([]byte(cfg.SecretKey), cfg.Issuer)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize JWT signer: %w", err)
	}

	if err := app.initBlacklist(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Store returns the application's data store.
func (app *Application) Store() store.Store {
	return app.db
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()
	app.running = true

	app.logger.Info("accounts service starting", "port", app.cfg.Port, "version", BuildVersion)

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
			_ = app.closeBackends()
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down accounts service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.running {
		app.housekeepingService.Stop()
		app.running = false
	}

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("accounts service stopped")
	return nil
}

// Close releases the store and redis client without touching the HTTP
// server or housekeeping. Used when the Application only backs Handler.
func (app *Application) Close() error {
	return app.closeBackends()
}

func (app *Application) closeBackends() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ConfigurePepper installs the password pepper: the secret when one was
// resolved, else the pepper file when configured, else none.
func ConfigurePepper(cfg Config) {
	switch {
	case cfg.Pepper != "":
		cryptox.SetPepper(cfg.Pepper)
	case cfg.PepperFile != "":
		cryptox.SetPepperPath(cfg.PepperFile)
	default:
		cryptox.SetPepper("")
	}
}

// OpenStore connects to the configured database and applies migrations
// when enabled.
func OpenStore(cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		db  store.Store
		err error
	)
	switch cfg.DB.Engine {
	case EngineSQLite:
		db, err = sqlite.NewStore(cfg.DB.File)
	default:
		db, err = mysql.NewStore(mysql.Options{
			User:            cfg.DB.User,
			Password:        cfg.DB.Password,
			Host:            cfg.DB.Host,
			Port:            cfg.DB.Port,
			Database:        cfg.DB.Name,
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.DB.ApplyMigrations {
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		logger.Info("database migrations applied successfully", "engine", cfg.DB.Engine)
	}

	return db, nil
}

func (app *Application) initBlacklist() error {
	if app.cfg.Blacklist.Backend != BlacklistRedis {
		app.blacklist = blacklist.NewSQL(app.db)
		return nil
	}

	app.redis = redis.NewClient(&redis.Options{
		Addr:         app.cfg.Blacklist.RedisAddr,
		Password:     app.cfg.Blacklist.RedisPassword,
		DB:           app.cfg.Blacklist.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.redis.Ping(ctx).Err(); err != nil {
		_ = app.redis.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	app.blacklist = blacklist.NewRedis(app.redis, blacklist.DefaultRedisPrefix)
	app.logger.Info("using redis token blacklist", "addr", app.cfg.Blacklist.RedisAddr)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.signupService = &service.SignupService{
		Store:             app.db,
		PasswordMinLength: app.cfg.PasswordMinLength,
	}

	app.tokenService = &service.TokenService{
		Store:                  app.db,
		Signer:                 app.jwt,
		Verifier:               app.jwt,
		Blacklist:              app.blacklist,
		Issuer:                 app.cfg.Issuer,
		AccessTTL:              app.cfg.AccessTTL,
		RefreshTTL:             app.cfg.RefreshTTL,
		RotateRefreshTokens:    app.cfg.RotateRefreshTokens,
		BlacklistAfterRotation: app.cfg.BlacklistAfterRotation,
	}

	app.rolesService = &service.RolesService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.jwt, app.db, app.logger, httpapi.Options{
		Production:     app.cfg.IsProduction(),
		AllowedOrigins: app.cfg.CORSAllowedOrigins,
		AllowedHosts:   app.cfg.AllowedHosts,
		MetricsEnabled: app.cfg.MetricsEnabled,
	})
	router.SignupService = app.signupService
	router.TokenService = app.tokenService
	router.RolesService = app.rolesService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
