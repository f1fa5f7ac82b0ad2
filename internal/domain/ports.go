package domain

import "context"

// PlantRepository defines the persistence contract for plants.
type PlantRepository interface {
	CreatePlant(ctx context.Context, plant Plant) (Plant, error)
	GetPlant(ctx context.Context, id int64) (Plant, error)
	GetPlantByName(ctx context.Context, name string) (Plant, error)
	ListPlants(ctx context.Context, filter PlantFilter) ([]Plant, error)
	SavePlant(ctx context.Context, plant Plant) error
	DeletePlant(ctx context.Context, id int64) error

	// ListPlantsWithoutEventOn returns plants that were neither watered nor
	// decayed on date, ordered by id.
	ListPlantsWithoutEventOn(ctx context.Context, date Date) ([]Plant, error)
}

// PlantFilter holds optional criteria for listing plants.
type PlantFilter struct {
	ArealID    string
	Health     *Health
	NeedsWater bool
	Limit      int
	Offset     int
}

// ArealRepository defines the persistence contract for areals.
// Deleting an areal deletes its plants.
type ArealRepository interface {
	SaveAreal(ctx context.Context, areal Areal) error
	GetAreal(ctx context.Context, id string) (Areal, error)
	ListAreals(ctx context.Context) ([]Areal, error)
	DeleteAreal(ctx context.Context, id string) error

	// SeedLayout stores layout atomically when there are no areals yet and
	// reports whether it wrote anything.
	SeedLayout(ctx context.Context, layout []ArealLayout) (bool, error)
}

// WateringRepository defines the persistence contract for watering events,
// decay records and the daily limit.
type WateringRepository interface {
	// RecordWatering stores the watering event and the watered plant as one
	// unit. It returns ErrAlreadyWatered if the plant already has an event on
	// date, in which case the plant is left untouched.
	RecordWatering(ctx context.Context, plant Plant, date Date) error
	CountEventsOn(ctx context.Context, date Date) (int, error)
	ListWateringEvents(ctx context.Context, filter EventFilter) ([]WateringEvent, error)

	// RecordDecay stores the decay record and the decayed plant as one unit.
	// It returns false without writing if the plant was already decayed on date.
	RecordDecay(ctx context.Context, plant Plant, date Date) (bool, error)

	GetDailyLimit(ctx context.Context) (int, error)
	SetDailyLimit(ctx context.Context, limit int) error
}

// EventFilter holds optional criteria for listing watering events.
type EventFilter struct {
	PlantID *int64
	Date    *Date
	Limit   int
}

// Store is the full plant record store.
type Store interface {
	PlantRepository
	ArealRepository
	WateringRepository
}

// EventPublisher defines the contract for emitting plant events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event, plant Plant) error
}

// TransitionValidator checks a health lifecycle event against the current health
// and returns the resulting health.
type TransitionValidator interface {
	Apply(ctx context.Context, current Health, event Event) (Health, error)
}

// ChecklistReader extracts checklist items from an image.
type ChecklistReader interface {
	ReadChecklist(ctx context.Context, image []byte, mimeType string) ([]ChecklistItem, error)
}

// ChecklistItem is one labelled checkbox on a paper checklist.
type ChecklistItem struct {
	Label   string
	Checked bool
}

// Clock supplies the current calendar day.
type Clock interface {
	Today() Date
}
