package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// PlantEventWorker records plant events in the structured log. Health
// changes are logged at warn level when a plant gets worse.
type PlantEventWorker struct {
	river.WorkerDefaults[PlantEventArgs]
	logger *slog.Logger
}

// NewPlantEventWorker creates a worker logging to logger, or to slog.Default when nil.
func NewPlantEventWorker(logger *slog.Logger) *PlantEventWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlantEventWorker{logger: logger}
}

// Work processes a single plant event job.
func (w *PlantEventWorker) Work(ctx context.Context, job *river.Job[PlantEventArgs]) error {
	args := job.Args
	w.logger.Log(ctx, levelFor(domain.Event(args.Event)), "plant event",
		"event", args.Event,
		"plant_id", args.PlantID,
		"plant", args.PlantName,
		"areal", args.ArealID,
		"health", args.Health,
		"size", args.Size,
		"growth_stage", args.GrowthStage,
		"water_streak", args.WaterStreak,
		"days_without_water", args.DaysWithoutWater,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

func levelFor(event domain.Event) slog.Level {
	switch event {
	case domain.EventWilt, domain.EventWither:
		return slog.LevelWarn
	case domain.EventWatered:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
