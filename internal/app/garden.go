package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// NewPlantInput holds the caller-chosen attributes of a new plant.
type NewPlantInput struct {
	ArealID   string
	Name      string
	ImagePath string
	Position  string
	Health    domain.Health
	Size      domain.Size
}

// GardenStats summarizes the whole garden.
type GardenStats struct {
	Areals  int
	Plants  int
	Healthy int
	Okay    int
	Dead    int
}

// GardenService manages areals and plants. It never changes a plant's
// watering attributes; only WateringService does.
type GardenService struct {
	store domain.Store
}

// NewGardenService creates a service backed by store.
func NewGardenService(store domain.Store) *GardenService {
	return &GardenService{store: store}
}

// CreateAreal stores an areal, replacing the layout metadata of an existing
// areal with the same ID.
func (s *GardenService) CreateAreal(ctx context.Context, areal domain.Areal) (domain.Areal, error) {
	if strings.TrimSpace(areal.ID) == "" {
		return domain.Areal{}, &domain.ValidationError{Field: "areal id", Value: areal.ID}
	}
	if err := s.store.SaveAreal(ctx, areal); err != nil {
		return domain.Areal{}, fmt.Errorf("saving areal: %w", err)
	}
	return s.store.GetAreal(ctx, areal.ID)
}

// GetAreal returns the areal with the given ID.
func (s *GardenService) GetAreal(ctx context.Context, id string) (domain.Areal, error) {
	return s.store.GetAreal(ctx, id)
}

// ListAreals returns every areal ordered by ID.
func (s *GardenService) ListAreals(ctx context.Context) ([]domain.Areal, error) {
	return s.store.ListAreals(ctx)
}

// DeleteAreal removes an areal and every plant in it.
func (s *GardenService) DeleteAreal(ctx context.Context, id string) error {
	return s.store.DeleteAreal(ctx, id)
}

// CreatePlant adds an unwatered plant to an existing areal.
// Health defaults to healthy and size to small.
func (s *GardenService) CreatePlant(ctx context.Context, in NewPlantInput) (domain.Plant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Plant{}, &domain.ValidationError{Field: "plant name", Value: in.Name}
	}
	if in.Health == "" {
		in.Health = domain.HealthHealthy
	}
	if !in.Health.Valid() {
		return domain.Plant{}, &domain.ValidationError{Field: "plant health", Value: string(in.Health)}
	}
	if in.Size == "" {
		in.Size = domain.SizeSmall
	}
	if !in.Size.Valid() {
		return domain.Plant{}, &domain.ValidationError{Field: "plant size", Value: string(in.Size)}
	}

	if _, err := s.store.GetAreal(ctx, in.ArealID); err != nil {
		return domain.Plant{}, err
	}

	plant := domain.NewPlant(in.ArealID, name, in.ImagePath, in.Position, in.Health, in.Size)
	created, err := s.store.CreatePlant(ctx, plant)
	if err != nil {
		return domain.Plant{}, fmt.Errorf("creating plant: %w", err)
	}
	return created, nil
}

// GetPlant returns the plant with the given ID.
func (s *GardenService) GetPlant(ctx context.Context, id int64) (domain.Plant, error) {
	return s.store.GetPlant(ctx, id)
}

// ListPlants returns the plants matching filter.
func (s *GardenService) ListPlants(ctx context.Context, filter domain.PlantFilter) ([]domain.Plant, error) {
	return s.store.ListPlants(ctx, filter)
}

// PlantsNeedingWater returns up to limit plants that are struggling or have
// gone two days or more without water, most neglected first.
func (s *GardenService) PlantsNeedingWater(ctx context.Context, limit int) ([]domain.Plant, error) {
	return s.store.ListPlants(ctx, domain.PlantFilter{NeedsWater: true, Limit: limit})
}

// DeletePlant removes a plant together with its watering history.
func (s *GardenService) DeletePlant(ctx context.Context, id int64) error {
	return s.store.DeletePlant(ctx, id)
}

// Garden returns every areal with its plants.
func (s *GardenService) Garden(ctx context.Context) ([]domain.ArealLayout, error) {
	areals, err := s.store.ListAreals(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing areals: %w", err)
	}
	plants, err := s.store.ListPlants(ctx, domain.PlantFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing plants: %w", err)
	}

	byAreal := make(map[string][]domain.Plant, len(areals))
	for _, p := range plants {
		byAreal[p.ArealID] = append(byAreal[p.ArealID], p)
	}

	layout := make([]domain.ArealLayout, 0, len(areals))
	for _, a := range areals {
		layout = append(layout, domain.ArealLayout{Areal: a, Plants: byAreal[a.ID]})
	}
	return layout, nil
}

// Stats counts areals and plants by health.
func (s *GardenService) Stats(ctx context.Context) (GardenStats, error) {
	areals, err := s.store.ListAreals(ctx)
	if err != nil {
		return GardenStats{}, fmt.Errorf("listing areals: %w", err)
	}
	plants, err := s.store.ListPlants(ctx, domain.PlantFilter{})
	if err != nil {
		return GardenStats{}, fmt.Errorf("listing plants: %w", err)
	}

	stats := GardenStats{Areals: len(areals), Plants: len(plants)}
	for _, p := range plants {
		switch p.Health {
		case domain.HealthHealthy:
			stats.Healthy++
		case domain.HealthOkay:
			stats.Okay++
		case domain.HealthDead:
			stats.Dead++
		}
	}
	return stats, nil
}

// Seed stores layout when the garden has no areals yet. Either the whole
// layout is written or nothing is. It reports whether anything was written.
func (s *GardenService) Seed(ctx context.Context, layout []domain.ArealLayout) (bool, error) {
	entries := make([]domain.ArealLayout, len(layout))
	for i, entry := range layout {
		plants := make([]domain.Plant, len(entry.Plants))
		for j, p := range entry.Plants {
			p.ArealID = entry.Areal.ID
			if p.GrowthStage == 0 {
				p.GrowthStage = domain.MinGrowthStage
			}
			plants[j] = p
		}
		entries[i] = domain.ArealLayout{Areal: entry.Areal, Plants: plants}
	}

	seeded, err := s.store.SeedLayout(ctx, entries)
	if err != nil {
		return false, fmt.Errorf("seeding garden: %w", err)
	}
	return seeded, nil
}
