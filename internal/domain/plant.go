package domain

import "time"

// Health is the visual condition of a plant.
type Health string

const (
	HealthHealthy Health = "healthy"
	HealthOkay    Health = "okay"
	HealthDead    Health = "dead"
)

// Valid reports whether h is one of the known health values.
func (h Health) Valid() bool {
	switch h {
	case HealthHealthy, HealthOkay, HealthDead:
		return true
	}
	return false
}

// Size is the rendered size of a plant.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeBig    Size = "big"
)

// Valid reports whether s is one of the known sizes.
func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeBig:
		return true
	}
	return false
}

const (
	MinGrowthStage = 1
	MaxGrowthStage = 5
)

// Plant is a symbolic plant standing for one area of personal life.
// Its watering attributes are changed only by ApplyWatering and ApplyNonWatering.
type Plant struct {
	ID        int64
	ArealID   string
	Name      string
	ImagePath string
	Position  string

	Health           Health
	Size             Size
	GrowthStage      int
	LastWatered      Date
	DaysWithoutWater int
	WaterStreak      int
	TotalWaterCount  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPlant creates an unwatered plant at the first growth stage.
func NewPlant(arealID, name, imagePath, position string, health Health, size Size) Plant {
	now := time.Now().UTC()
	return Plant{
		ArealID:     arealID,
		Name:        name,
		ImagePath:   imagePath,
		Position:    position,
		Health:      health,
		Size:        size,
		GrowthStage: MinGrowthStage,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Watered reports whether the plant has ever been watered.
func (p Plant) Watered() bool {
	return !p.LastWatered.IsZero()
}

// Recovering reports whether a dead plant is on a streak that will revive it.
// It has no effect on the rules; it only lets a caller show progress.
func (p Plant) Recovering() bool {
	return p.Health == HealthDead && p.WaterStreak >= 3 && p.WaterStreak < reviveStreak
}

// Areal is a named group of plants with layout metadata.
type Areal struct {
	ID            string
	Name          string
	HorizontalPos string
	VerticalPos   string
	Size          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ArealLayout is an areal together with its plants.
type ArealLayout struct {
	Areal  Areal
	Plants []Plant
}

// WateringEvent records that a plant was watered on a date.
type WateringEvent struct {
	PlantID   int64
	PlantName string
	Date      Date
	CreatedAt time.Time
}
