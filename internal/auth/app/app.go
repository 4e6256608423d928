package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/authserver/internal/auth/http"
	"github.com/aussiebroadwan/authserver/internal/auth/metrics"
	"github.com/aussiebroadwan/authserver/internal/auth/service"
	"github.com/aussiebroadwan/authserver/internal/auth/store"
	"github.com/aussiebroadwan/authserver/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/authserver/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
	"github.com/aussiebroadwan/authserver/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	hasher     *cryptox.SecretHasher
	keyManager *jwtx.KeyManager
	metrics    *metrics.Metrics

	// Services
	tokenService  *service.TokenService
	tokenStore    *service.JWTTokenStore
	clientService *service.ClientService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	return NewWithLogger(cfg, slogx.New(slogx.Config{
		Service: "authserver",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	}))
}

// NewWithLogger is New with a caller supplied logger.
func NewWithLogger(cfg Config, logger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app := &Application{cfg: cfg, logger: logger, metrics: metrics.New()}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewSecretHasher(pepper)

	keyManager, err := InitAuthKeys(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	if err := app.seedClients(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// KeyManager returns the signing key material in use.
func (app *Application) KeyManager() *jwtx.KeyManager { return app.keyManager }

// Run serves HTTP until ctx is cancelled or the server fails, then shuts
// down gracefully.
func (app *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", app.server.Addr, err)
	}
	return app.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (app *Application) Serve(ctx context.Context, ln net.Listener) error {
	app.logger.Info("auth service starting",
		"addr", ln.Addr().String(),
		"issuer", app.cfg.Issuer,
		"version", BuildVersion,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutdown requested", "cause", context.Cause(gctx))
		return app.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the application
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

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the configured client registry store and applies
// migrations.
func (app *Application) initDatabase() error {
	switch app.cfg.Store {
	case StoreSQLite:
		db, err := sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	default:
		app.db = memory.NewStore()
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("client store ready", "driver", app.cfg.Store)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	converter := service.NewAccessTokenConverter(
		app.keyManager.Signer,
		app.keyManager.Verifier,
		service.WithMaxConcurrentRSA(app.cfg.MaxConcurrentSigning),
		service.WithConverterMetrics(app.metrics),
	)

	app.tokenStore = service.NewJWTTokenStore(converter, app.metrics)
	app.tokenService = &service.TokenService{
		Store:      app.db,
		Hasher:     app.hasher,
		Enhancer:   service.NewEnhancerChain(service.IssuerEnhancer(app.cfg.Issuer)),
		Converter:  converter,
		Metrics:    app.metrics,
		DefaultTTL: jwtx.DefaultAccessTokenTTL,
		MaxTTL:     app.cfg.MaxTokenTTL,
	}
	app.clientService = &service.ClientService{Store: app.db, Hasher: app.hasher}
}

// seedClients loads the client registry file, or the demo registry when no
// file is configured, into the store.
func (app *Application) seedClients() error {
	clients, err := app.registry()
	if err != nil || clients == nil {
		return err
	}

	clients = ClampValidity(clients, app.cfg.MaxTokenTTL, app.logger)

	ctx := slogx.WithContext(context.Background(), app.logger)
	if err := app.clientService.SeedClients(ctx, clients); err != nil {
		return fmt.Errorf("failed to seed clients: %w", err)
	}
	return nil
}

// registry returns the clients to seed. It returns nil without error when the
// demo registry would be used but the store already holds clients.
func (app *Application) registry() ([]domain.Client, error) {
	if app.cfg.ClientsFile != "" {
		clients, err := LoadClientFile(app.cfg.ClientsFile, app.hasher, app.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load clients: %w", err)
		}
		return clients, nil
	}

	empty, err := app.db.Clients().IsEmpty(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to inspect client store: %w", err)
	}
	if !empty {
		app.logger.Info("client store already populated, skipping demo registry")
		return nil, nil
	}

	app.logger.Warn("no AUTH_CLIENTS_FILE configured, using demo clients with a well-known secret")
	return DemoClients(app.hasher)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.cfg.Issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.TokenStore = app.tokenStore
	router.Metrics = app.metrics
	router.Limits = app.cfg.RateLimits
	router.IntrospectScopes = app.cfg.IntrospectScopes
	if err := router.ApplyRoutes(); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
