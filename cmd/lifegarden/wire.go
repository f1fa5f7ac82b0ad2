package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/lifegarden/internal/adapter/fsm"
	"github.com/neomorfeo/lifegarden/internal/adapter/metrics"
	"github.com/neomorfeo/lifegarden/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/lifegarden/internal/adapter/river"
	"github.com/neomorfeo/lifegarden/internal/adapter/sqlite"
	"github.com/neomorfeo/lifegarden/internal/adapter/vision"
	"github.com/neomorfeo/lifegarden/internal/app"
	"github.com/neomorfeo/lifegarden/internal/domain"
	"github.com/neomorfeo/lifegarden/internal/seed"
)

// garden is the fully wired application shared by the server and the CLI.
type garden struct {
	db        *sql.DB
	river     *riveradapter.Client
	metrics   *metrics.Registry
	garden    *app.GardenService
	watering  *app.WateringService
	checklist *app.ChecklistService
}

// openGarden opens the database and wires every adapter around it.
// Plant events are queued in River; the CLI only enqueues them and the
// server's worker drains the queue.
func openGarden(ctx context.Context, cfg config, logger *slog.Logger) (*garden, error) {
	loc, err := cfg.location()
	if err != nil {
		return nil, err
	}

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("database: %w", err)
	}
	store := otel.NewTracingStore(repo)

	riverClient, err := riveradapter.Setup(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("river: %w", err)
	}

	reg := metrics.New()
	publisher := reg.CountingPublisher(
		otel.NewTracingPublisher(riveradapter.NewPublisher(riverClient)),
	)

	var reader domain.ChecklistReader
	if cfg.Vision.APIKey != "" {
		reader = vision.New(cfg.Vision)
	}

	// --- Application ---
	gardenSvc := app.NewGardenService(store)
	watering := app.NewWateringService(store, publisher, fsm.New(), app.NewSystemClock(loc), logger)

	if err := reg.WatchGarden(gardenSvc); err != nil {
		db.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	return &garden{
		db:        db,
		river:     riverClient,
		metrics:   reg,
		garden:    gardenSvc,
		watering:  watering,
		checklist: app.NewChecklistService(reader, watering),
	}, nil
}

func (g *garden) Close() error {
	return g.db.Close()
}

// seedLayout loads the layout file, or the embedded default when path is empty.
func seedLayout(path string) ([]domain.ArealLayout, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.Load(path)
}
