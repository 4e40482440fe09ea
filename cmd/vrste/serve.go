package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/erazemk/vrste/internal/api"
	"github.com/erazemk/vrste/internal/cache"
	"github.com/erazemk/vrste/internal/catalog"
	"github.com/erazemk/vrste/internal/config"
	"github.com/erazemk/vrste/internal/imagestore"
	"github.com/erazemk/vrste/internal/store"
	"github.com/erazemk/vrste/internal/web"
)

// tokenPurgeInterval is how often expired token revocations are dropped.
const tokenPurgeInterval = time.Hour

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), a.cfg, a.logger)
		},
	}
	cmd.Flags().StringP("addr", "a", ":8080", "listen address")
	cmd.Flags().StringP("user", "u", "Admin", "admin username on first run")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DBPath); errors.Is(err, os.ErrNotExist) {
		database, password, err := initDatabase(ctx, cfg.DBPath, cfg.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.DBPath, cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := openDatabase(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()
	logger.Info("database ready", "path", cfg.DBPath)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	images, err := newImageStore(ctx, cfg, database)
	if err != nil {
		return err
	}

	var opts []catalog.Option
	health := &api.HealthHandler{DB: database}
	if cfg.RedisURL != "" {
		names, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer names.Close()
		opts = append(opts, catalog.WithNameCache(names))
		health.Cache = names
		logger.Info("display name cache enabled")
	}
	svc := catalog.New(database, images, logger, opts...)

	apiRouter := api.NewRouter(api.Deps{
		DB:            database,
		Catalog:       svc,
		JWTSecret:     jwtSecret,
		MaxUploadSize: cfg.MaxUploadSize,
	})
	webRouter, err := web.NewRouter(web.Deps{
		DB:            database,
		Catalog:       svc,
		JWTSecret:     jwtSecret,
		Logger:        logger,
		MaxUploadSize: cfg.MaxUploadSize,
		SecureCookies: cfg.SecureCookies,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	root := chi.NewRouter()
	root.Use(middleware.RealIP)
	root.Use(api.RequestID)
	root.Use(api.Logger(logger))
	root.Use(api.Recoverer(logger))
	root.Get("/healthz", health.Healthz)
	// API routes take priority, web routes handle the rest.
	root.Handle("/api/*", apiRouter)
	root.Handle("/*", webRouter)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           root,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	go purgeTokens(bgCtx, database, logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		sig, ok := <-quit
		if !ok {
			return
		}
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped, closing database")
	return nil
}

func newImageStore(ctx context.Context, cfg *config.Config, database *sql.DB) (imagestore.Store, error) {
	if cfg.ImageStore != config.ImageStoreS3 {
		return imagestore.NewDB(database), nil
	}
	s, err := imagestore.NewS3(ctx, imagestore.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up s3 image store: %w", err)
	}
	return s, nil
}

// purgeTokens drops expired revocations until ctx is done.
func purgeTokens(ctx context.Context, database *sql.DB, logger *slog.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeExpiredTokens(ctx, database, now)
			if err != nil {
				logger.Error("failed to purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged revoked tokens", "count", n)
			}
		}
	}
}
