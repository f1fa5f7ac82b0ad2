package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// PlantEventArgs is a plant event as stored in River's job table. It carries
// a snapshot of the plant taken when the event was published, so the worker
// never reads the garden store.
type PlantEventArgs struct {
	Event            string `json:"event"`
	PlantID          int64  `json:"plant_id"`
	PlantName        string `json:"plant_name"`
	ArealID          string `json:"areal_id"`
	Health           string `json:"health"`
	Size             string `json:"size"`
	GrowthStage      int    `json:"growth_stage"`
	WaterStreak      int    `json:"water_streak"`
	DaysWithoutWater int    `json:"days_without_water"`
	LastWatered      string `json:"last_watered,omitempty"`
}

// Kind returns the job type River routes on.
func (PlantEventArgs) Kind() string { return "plant.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher enqueues plant events as River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues event for plant.
func (p *Publisher) Publish(ctx context.Context, event domain.Event, plant domain.Plant) error {
	_, err := p.client.Insert(ctx, argsFor(event, plant), nil)
	if err != nil {
		return fmt.Errorf("enqueuing %s event for plant %d: %w", event, plant.ID, err)
	}
	return nil
}

func argsFor(event domain.Event, plant domain.Plant) PlantEventArgs {
	return PlantEventArgs{
		Event:            string(event),
		PlantID:          plant.ID,
		PlantName:        plant.Name,
		ArealID:          plant.ArealID,
		Health:           string(plant.Health),
		Size:             string(plant.Size),
		GrowthStage:      plant.GrowthStage,
		WaterStreak:      plant.WaterStreak,
		DaysWithoutWater: plant.DaysWithoutWater,
		LastWatered:      plant.LastWatered.String(),
	}
}
