package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/blob"
	httpapi "github.com/aussiebroadwan/pixhost/internal/pixhost/http"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store/drivers/sqlite"
	"github.com/aussiebroadwan/pixhost/pkg/cryptox"
	"github.com/aussiebroadwan/pixhost/pkg/jwtx"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the pixhost service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	blobs  blob.Store
	hasher *cryptox.Hasher
	signer *jwtx.SessionSigner

	// Services
	userService         *service.UserService
	clientService       *service.ClientService
	tokenService        *service.TokenService
	authorizeService    *service.AuthorizeService
	guardService        *service.GuardService
	imageService        *service.ImageService
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
			Service: "pixhost",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initSecrets(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.initBlobs(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("pixhost starting",
		"port", app.cfg.Port,
		"base_url", app.cfg.BaseURL,
		"blob_driver", app.cfg.BlobDriver,
		"version", BuildVersion,
	)

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
		app.housekeepingService.Stop()
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down pixhost...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("pixhost stopped")
	return nil
}

// initSecrets loads the password pepper and the session signing key
func (app *Application) initSecrets() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	app.hasher, err = cryptox.NewHasher(pepper)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	app.signer, err = jwtx.NewSessionSigner([]byte(app.cfg.SessionSecret), app.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize session signer: %w", err)
	}
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initBlobs opens the configured blob store
func (app *Application) initBlobs(ctx context.Context) error {
	switch app.cfg.BlobDriver {
	case BlobDriverS3:
		s3cfg := app.cfg.S3
		st, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:          s3cfg.Bucket,
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			PathStyle:       s3cfg.PathStyle,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			PresignTTL:      s3cfg.PresignTTL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize s3 blob store: %w", err)
		}
		if s3cfg.CreateBucket {
			if err := st.EnsureBucket(ctx); err != nil {
				return err
			}
		}
		app.blobs = st
		app.logger.Info("s3 blob store ready", "bucket", s3cfg.Bucket, "endpoint", s3cfg.Endpoint)

	default:
		st, err := blob.NewFileStore(app.cfg.BlobDir, app.cfg.BaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize file blob store: %w", err)
		}
		app.blobs = st
		app.logger.Info("file blob store ready", "dir", app.cfg.BlobDir)
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.userService = &service.UserService{Store: app.db, Hasher: app.hasher}
	app.clientService = &service.ClientService{Store: app.db, Hasher: app.hasher}
	app.tokenService = &service.TokenService{
		Store:     app.db,
		Users:     app.userService,
		Clients:   app.clientService,
		AccessTTL: app.cfg.AccessTokenTTL,
		CodeTTL:   app.cfg.AuthCodeTTL,
	}
	app.authorizeService = &service.AuthorizeService{
		Clients: app.clientService,
		Tokens:  app.tokenService,
	}
	app.guardService = &service.GuardService{Tokens: app.tokenService}
	app.imageService = &service.ImageService{Store: app.db, Blobs: app.blobs}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.TokenRetention,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.blobs, app.logger)

	router.Sessions = &httpapi.Sessions{
		Signer: app.signer,
		Issuer: app.cfg.BaseURL,
		TTL:    app.cfg.SessionTTL,
		Secure: app.cfg.SecureCookies(),
	}

	// Wire services to router
	router.UserService = app.userService
	router.ClientService = app.clientService
	router.TokenService = app.tokenService
	router.AuthorizeService = app.authorizeService
	router.GuardService = app.guardService
	router.ImageService = app.imageService

	router.ResourceScope = app.cfg.ResourceScope
	router.MaxUploadBytes = app.cfg.MaxUploadBytes
	router.ServeBlobs = app.cfg.BlobDriver == BlobDriverFile
	router.StrictLimit = app.cfg.StrictLimit
	router.ModerateLimit = app.cfg.ModerateLimit
	router.TrustedProxies = app.cfg.TrustedProxies
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
