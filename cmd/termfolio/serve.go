package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/termfolio/termfolio/internal/api"
	"github.com/termfolio/termfolio/internal/auth"
	"github.com/termfolio/termfolio/internal/env"
	"github.com/termfolio/termfolio/internal/env/postgres"
	"github.com/termfolio/termfolio/internal/events"
	"github.com/termfolio/termfolio/internal/logging"
	"github.com/termfolio/termfolio/internal/manifest"
	"github.com/termfolio/termfolio/internal/metrics"
	"github.com/termfolio/termfolio/internal/mount"
	"github.com/termfolio/termfolio/internal/quota"
	"github.com/termfolio/termfolio/internal/session"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web terminal and the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireServer(); err != nil {
		return err
	}
	defer logging.Sync()

	logging.Info("termfolio server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("mounts", cfg.MountsFile))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	load := tableLoader()
	table, err := load(ctx)
	if err != nil {
		return fmt.Errorf("load mounts: %w", err)
	}

	// Env store: PostgreSQL when configured, otherwise in memory
	var stores env.Sessions = env.NewMemorySessions()
	if cfg.DatabaseURL != "" {
		logging.Info("connecting to PostgreSQL...")
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		purgeEnv(ctx, pg)
		stores = pg
	}

	broadcaster := events.NewBroadcaster()
	sessions := session.NewManager(table, stores, sessionOptions(), broadcaster)
	go sessions.RunExpiry(ctx, cfg.SessionTTL, time.Minute)

	if cfg.Watch {
		if err := watchManifests(ctx, sessions, load); err != nil {
			logging.Warn("manifest watcher disabled", zap.Error(err))
		}
	}

	authHandler := auth.New(cfg.JWTSecret, cfg.SessionTTL, cfg.AdminHash)
	srv := api.NewServer(sessions, authHandler, broadcaster, load)
	if cfg.RateLimitRPM > 0 {
		limiter := quota.NewRateLimiter(cfg.RateLimitRPM)
		go limiter.RunCleanup(ctx, 10*time.Minute, time.Hour)
		srv.SetRateLimiter(limiter)
	}

	// Start metrics server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	// Start HTTP(S) server
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	useTLS := cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""
	if useTLS {
		httpServer.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS13,
		}
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		httpServer.Shutdown(shutdownCtx)
		metricsServer.Close()
	}()

	if useTLS {
		logging.Info("server listening (TLS 1.3)",
			zap.String("addr", cfg.ListenAddr),
			zap.String("cert", cfg.TLSCertFile))
		err = httpServer.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	} else {
		logging.Info("server listening (HTTP)", zap.String("addr", cfg.ListenAddr))
		err = httpServer.ListenAndServe()
	}
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// watchManifests remounts whenever the mounts file or a local manifest
// changes. Local manifests added by a later edit of the mounts file are
// not watched until restart.
func watchManifests(ctx context.Context, sessions *session.Manager, load session.Loader) error {
	mounts, err := mount.LoadFile(cfg.MountsFile)
	if err != nil {
		return err
	}
	paths := append(mount.LocalPaths(mounts), cfg.MountsFile)
	w, err := manifest.NewWatcher(paths, 0)
	if err != nil {
		return err
	}
	ch := w.Subscribe()
	w.Start(ctx)
	logging.Info("watching manifests", zap.Strings("paths", paths))

	go func() {
		defer w.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-ch:
				if !ok {
					return
				}
				logging.Info("manifest changed, remounting", zap.String("path", c.Path))
				// Remount logs and publishes its own failure.
				_ = sessions.Remount(ctx, load)
			}
		}
	}()
	return nil
}

// purgeEnv drops the variables left by a previous run. Sessions live in
// memory, so no row written before startup can belong to a live session.
func purgeEnv(ctx context.Context, pg *postgres.Store) {
	n, err := pg.PurgeOlderThan(ctx, time.Now())
	if err != nil {
		logging.Error("env purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		logging.Info("purged stale env vars", zap.Int64("count", n))
	}
}
