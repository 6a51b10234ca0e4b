// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

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

	"github.com/spf13/cobra"

	"pagecraft/internal/cache"
	"pagecraft/internal/config"
	"pagecraft/internal/database"
	"pagecraft/internal/handlers"
	"pagecraft/internal/memstore"
	"pagecraft/internal/middleware"
	"pagecraft/internal/router"
	"pagecraft/internal/storage"
	"pagecraft/internal/store"
	"pagecraft/internal/versioning"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup(opts)
			if err != nil {
				return err
			}
			defer closer.Close()
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	deps := versioning.Deps{
		BaseDomain:   cfg.Site.BaseDomain,
		Scheme:       cfg.Site.Scheme,
		SlugAttempts: cfg.Site.SlugAttempts,
		HistoryLimit: cfg.Site.HistoryLimit,
	}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		slog.Warn("using the in-memory store, data is lost on exit")
		mem := memstore.New()
		deps.Templates = mem.Templates()
		deps.Snapshots = mem.Snapshots()
		deps.Sites = mem.Sites()
		deps.Events = mem.Events()
	default:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		db, err := database.Connect(connectCtx, cfg.DSN(), poolFromConfig(cfg))
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			return err
		}
		// Seed development data (no-op if data already exists).
		if cfg.IsDev() {
			if err := database.Seed(connectCtx, db); err != nil {
				return err
			}
		}

		deps.Templates = store.NewTemplateStore(db)
		deps.Snapshots = store.NewSnapshotStore(db)
		deps.Sites = store.NewSiteStore(db)
		deps.Events = store.NewEventStore(db, "pgx")
	}

	// The site cache is optional: without Valkey every resolve reads the
	// database.
	if addr := cfg.ValkeyAddr(); addr != "" {
		client, err := cache.ConnectValkey(addr, cfg.Valkey.Password, cfg.Valkey.DB)
		if err != nil {
			slog.Warn("valkey unavailable, site cache disabled", "addr", addr, "error", err)
		} else {
			defer client.Close()
			deps.Cache = cache.NewSiteCache(client, cfg.Valkey.SiteTTL)
		}
	}

	archive, err := storage.New(storage.Options{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Prefix:    cfg.Storage.Prefix,
	})
	if err != nil {
		return fmt.Errorf("init snapshot archive: %w", err)
	}
	if archive != nil {
		slog.Info("snapshot archive enabled", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
		deps.Archive = archive
	} else {
		slog.Warn("s3 storage not configured, snapshot archive disabled")
	}

	var limiter *middleware.RateLimiter
	if cfg.Server.WriteLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.WriteLimit, cfg.Server.WriteWindow)
		defer limiter.Stop()
	}

	api := handlers.NewAPI(versioning.New(deps))
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.New(api, limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case <-ctx.Done():
		slog.Info("shutdown requested", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
