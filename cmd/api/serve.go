package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/medscan/internal/application"
	appai "github.com/bryanwahyu/medscan/internal/application/ai"
	appscans "github.com/bryanwahyu/medscan/internal/application/scans"
	"github.com/bryanwahyu/medscan/internal/config"
	"github.com/bryanwahyu/medscan/internal/infra/httpserver"
	"github.com/bryanwahyu/medscan/internal/middleware"
)

// NewServeCmd creates the command that runs the HTTP API.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrate(ctx, cfg.Database.Driver, db.DB); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	images, err := openImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	aiClient := newAIClient(cfg)
	svc := &appscans.Service{
		Repo:     db.scans,
		Images:   images,
		AI:       appai.NewService(aiClient, cfg.AI.Timeout),
		Clock:    application.SystemClock{},
		Analyses: db.analyses,
		Failures: db.failures,
		MaxBytes: cfg.Upload.MaxBytes,
	}

	if len(cfg.Server.APIKeys) == 0 {
		slog.Warn("no api keys configured; every /v1 request will be rejected")
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		APIKeys:     cfg.Server.APIKeys,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimiter: middleware.NewRateLimiter(ctx, cfg.Server.RateLimit, cfg.Server.RateRefill),
		Checkers: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db.DB},
			"storage":  middleware.CheckerFunc(images.Ping),
		},
		MaxBytes: cfg.Upload.MaxBytes,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening",
			"addr", addr,
			"db", cfg.Database.Driver,
			"storage", cfg.Storage.Driver,
			"model", aiClient.Model(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		// analyses already dispatched still get to write their final status
		if err := svc.Drain(shutdownCtx); err != nil {
			return fmt.Errorf("drain analyses: %w", err)
		}
		return nil
	})

	return g.Wait()
}
