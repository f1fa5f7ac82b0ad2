// Package main provides the lifegarden binary: the garden HTTP API and a
// small set of maintenance commands.
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

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/lifegarden/internal/adapter/otel"

	handler "github.com/neomorfeo/lifegarden/internal/adapter/http"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the HTTP server with configuration from the environment and
// blocks until SIGINT or SIGTERM.
func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return serve(cfg)
}

func serve(cfg config) error {
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	providers, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	g, err := openGarden(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer g.Close()

	if err := prepare(ctx, g, cfg, logger); err != nil {
		return err
	}

	// Stopped explicitly on shutdown, not by the signal.
	if err := g.river.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware(cfg.OTel.ServiceName, otelchi.WithChiRoutes(router)))
	router.Handle("/metrics", g.metrics.Handler())

	api := humachi.New(router, huma.DefaultConfig("lifegarden", version))
	handler.Register(api, handler.Services{
		Garden:    g.garden,
		Watering:  g.watering,
		Checklist: g.checklist,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("lifegarden listening", "port", cfg.Port, "docs", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if err != nil {
			serveErr = fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := g.river.Stop(shutdownCtx); err != nil {
		logger.Error("river shutdown", "error", err)
	}

	logger.Info("stopped")
	return serveErr
}

// prepare seeds an empty garden and applies DAILY_WATERING_LIMIT.
func prepare(ctx context.Context, g *garden, cfg config, logger *slog.Logger) error {
	layout, err := seedLayout(cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("seed layout: %w", err)
	}
	seeded, err := g.garden.Seed(ctx, layout)
	if err != nil {
		return fmt.Errorf("seeding garden: %w", err)
	}
	if seeded {
		logger.Info("seeded empty garden", "areals", len(layout))
	}

	if cfg.DailyLimit != nil {
		if err := g.watering.SetLimit(ctx, *cfg.DailyLimit); err != nil {
			return fmt.Errorf("applying DAILY_WATERING_LIMIT: %w", err)
		}
	}
	return nil
}
