package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// PlantRef identifies a plant in a watering request, by ID or by name.
type PlantRef struct {
	ID   int64
	Name string
}

// ByID refers to a plant by its store ID.
func ByID(id int64) PlantRef { return PlantRef{ID: id} }

// ByName refers to a plant by its unique name.
func ByName(name string) PlantRef { return PlantRef{Name: name} }

func (r PlantRef) String() string {
	if r.Name != "" {
		return r.Name
	}
	return strconv.FormatInt(r.ID, 10)
}

// Reason explains why a plant was not watered.
type Reason string

const (
	ReasonLimitReached   Reason = "limit_reached"
	ReasonOverCapacity   Reason = "over_capacity"
	ReasonNotFound       Reason = "not_found"
	ReasonAlreadyWatered Reason = "already_watered"
)

// SkippedPlant is a requested plant that was not watered.
type SkippedPlant struct {
	Ref    PlantRef
	Reason Reason
}

// WateringSummary reports the outcome of a batch watering request.
type WateringSummary struct {
	Date               domain.Date
	Success            bool
	Message            string
	Reason             Reason
	DailyLimit         int
	PlantsWateredToday int
	Updated            []domain.Plant
	Skipped            []SkippedPlant
	Decayed            int
}

// WateringResult reports the outcome of watering a single plant.
type WateringResult struct {
	Date               domain.Date
	Success            bool
	Message            string
	Reason             Reason
	Plant              domain.Plant
	DailyLimit         int
	PlantsWateredToday int
}

// DailyStats summarizes one date's watering.
type DailyStats struct {
	Date          domain.Date
	Limit         int
	Watered       int
	Remaining     int
	WateredPlants []string
}

// WateringService is the watering orchestrator. It admits requests through the
// capacity gate, applies the watering engine to admitted plants and the decay
// engine to every other plant, one date at a time.
type WateringService struct {
	store     domain.Store
	gate      *CapacityGate
	publisher domain.EventPublisher
	validator domain.TransitionValidator
	clock     domain.Clock
	logger    *slog.Logger
	locks     *dateLocks
}

// NewWateringService creates a service with the given adapters.
// A nil logger falls back to slog.Default.
func NewWateringService(
	store domain.Store,
	publisher domain.EventPublisher,
	validator domain.TransitionValidator,
	clock domain.Clock,
	logger *slog.Logger,
) *WateringService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WateringService{
		store:     store,
		gate:      NewCapacityGate(store, domain.DefaultLimitRange),
		publisher: publisher,
		validator: validator,
		clock:     clock,
		logger:    logger,
		locks:     newDateLocks(),
	}
}

// Water waters refs on date (today when nil), front of the list first.
// Requests beyond the remaining capacity are skipped, then every plant not
// watered on date decays. On a storage failure the batch stops and the
// summary of what was already committed is returned with the error.
func (s *WateringService) Water(ctx context.Context, refs []PlantRef, date *domain.Date) (WateringSummary, error) {
	day := s.resolveDate(date)
	refs = dedupe(refs)

	unlock := s.locks.lock(day)
	defer unlock()

	summary := WateringSummary{Date: day}

	adm, err := s.gate.Admit(ctx, day, len(refs))
	if err != nil {
		return summary, err
	}
	summary.DailyLimit = adm.Limit
	summary.PlantsWateredToday = adm.AlreadyWatered

	if adm.LimitReached() {
		summary.Reason = ReasonLimitReached
		summary.Message = fmt.Sprintf("Daily watering limit (%d) already reached", adm.Limit)
		for _, ref := range refs {
			summary.Skipped = append(summary.Skipped, SkippedPlant{Ref: ref, Reason: ReasonLimitReached})
		}
		s.logger.InfoContext(ctx, "watering rejected", "date", day.String(), "limit", adm.Limit)
		return summary, nil
	}

	for _, ref := range refs[:adm.Granted] {
		plant, reason, err := s.waterPlant(ctx, ref, day)
		if err != nil {
			summary.PlantsWateredToday += len(summary.Updated)
			return summary, err
		}
		if reason != "" {
			summary.Skipped = append(summary.Skipped, SkippedPlant{Ref: ref, Reason: reason})
			continue
		}
		summary.Updated = append(summary.Updated, plant)
	}
	for _, ref := range refs[adm.Granted:] {
		summary.Skipped = append(summary.Skipped, SkippedPlant{Ref: ref, Reason: ReasonOverCapacity})
	}
	summary.PlantsWateredToday += len(summary.Updated)

	decayed, err := s.decay(ctx, day)
	summary.Decayed = decayed
	if err != nil {
		return summary, err
	}

	summary.Success = true
	summary.Message = fmt.Sprintf("Watered %d plants", len(summary.Updated))

	s.logger.InfoContext(ctx, "watering processed",
		"date", day.String(),
		"requested", len(refs),
		"granted", adm.Granted,
		"watered", len(summary.Updated),
		"skipped", len(summary.Skipped),
		"decayed", decayed,
	)
	return summary, nil
}

// WaterOne waters a single plant through the same path as Water and reports
// a human-readable outcome.
func (s *WateringService) WaterOne(ctx context.Context, ref PlantRef, date *domain.Date) (WateringResult, error) {
	summary, err := s.Water(ctx, []PlantRef{ref}, date)

	result := WateringResult{
		Date:               summary.Date,
		DailyLimit:         summary.DailyLimit,
		PlantsWateredToday: summary.PlantsWateredToday,
		Reason:             summary.Reason,
		Message:            summary.Message,
	}
	if len(summary.Updated) == 1 {
		result.Success = true
		result.Plant = summary.Updated[0]
		result.Message = fmt.Sprintf("Successfully watered '%s'", result.Plant.Name)
	} else if len(summary.Skipped) == 1 {
		result.Reason = summary.Skipped[0].Reason
		result.Message = skipMessage(ref, result.Reason, summary.DailyLimit)
	}
	return result, err
}

func skipMessage(ref PlantRef, reason Reason, limit int) string {
	switch reason {
	case ReasonNotFound:
		if ref.Name != "" {
			return fmt.Sprintf("Plant name '%s' not found", ref.Name)
		}
		return fmt.Sprintf("Plant %d not found", ref.ID)
	case ReasonAlreadyWatered:
		return fmt.Sprintf("Plant '%s' has already been watered today", ref)
	default:
		return fmt.Sprintf("Daily watering limit (%d) already reached", limit)
	}
}

// waterPlant waters one admitted plant. A non-empty Reason means the plant
// was skipped; an error means the store failed.
func (s *WateringService) waterPlant(ctx context.Context, ref PlantRef, day domain.Date) (domain.Plant, Reason, error) {
	plant, err := s.lookup(ctx, ref)
	if errors.Is(err, domain.ErrPlantNotFound) {
		return domain.Plant{}, ReasonNotFound, nil
	}
	if err != nil {
		return domain.Plant{}, "", &domain.StorageError{Op: "get plant " + ref.String(), Err: err}
	}

	watered := domain.ApplyWatering(plant, day)
	healthEvent, changed, err := s.checkHealth(ctx, plant, watered)
	if err != nil {
		return domain.Plant{}, "", err
	}

	if err := s.store.RecordWatering(ctx, watered, day); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyWatered):
			return plant, ReasonAlreadyWatered, nil
		case errors.Is(err, domain.ErrPlantNotFound):
			return domain.Plant{}, ReasonNotFound, nil
		default:
			return domain.Plant{}, "", &domain.StorageError{Op: "record watering", Err: err}
		}
	}

	s.publish(ctx, domain.EventWatered, watered)
	if changed {
		s.publish(ctx, healthEvent, watered)
	}
	return watered, "", nil
}

// decay applies the decay engine once to every plant with no watering event
// and no decay record on day.
func (s *WateringService) decay(ctx context.Context, day domain.Date) (int, error) {
	plants, err := s.store.ListPlantsWithoutEventOn(ctx, day)
	if err != nil {
		return 0, &domain.StorageError{Op: "list unwatered plants", Err: err}
	}

	decayed := 0
	for _, plant := range plants {
		after := domain.ApplyNonWatering(plant)
		healthEvent, changed, err := s.checkHealth(ctx, plant, after)
		if err != nil {
			return decayed, err
		}

		ok, err := s.store.RecordDecay(ctx, after, day)
		if err != nil {
			return decayed, &domain.StorageError{Op: "record decay", Err: err}
		}
		if !ok {
			continue
		}
		decayed++

		if changed {
			s.publish(ctx, healthEvent, after)
		}
	}
	return decayed, nil
}

// checkHealth validates the health change from before to after against the
// lifecycle. changed is false when health did not move or moved off an
// unknown value.
func (s *WateringService) checkHealth(ctx context.Context, before, after domain.Plant) (domain.Event, bool, error) {
	event, ok := domain.HealthEvent(before.Health, after.Health)
	if !ok {
		return "", false, nil
	}

	got, err := s.validator.Apply(ctx, before.Health, event)
	if err != nil {
		return "", false, fmt.Errorf("plant %q: %w", before.Name, err)
	}
	if got != after.Health {
		return "", false, &domain.TransitionError{Event: event, Current: before.Health}
	}
	return event, true, nil
}

// publish emits an event. The watering is already committed, so a failed
// publish is logged rather than returned.
func (s *WateringService) publish(ctx context.Context, event domain.Event, plant domain.Plant) {
	if err := s.publisher.Publish(ctx, event, plant); err != nil {
		s.logger.WarnContext(ctx, "publishing plant event failed",
			"event", string(event),
			"plant_id", plant.ID,
			"plant", plant.Name,
			"error", err,
		)
	}
}

func (s *WateringService) lookup(ctx context.Context, ref PlantRef) (domain.Plant, error) {
	if ref.Name != "" {
		return s.store.GetPlantByName(ctx, ref.Name)
	}
	return s.store.GetPlant(ctx, ref.ID)
}

// DailyStats reports the limit, the watered plants and the remaining
// capacity for date (today when nil).
func (s *WateringService) DailyStats(ctx context.Context, date *domain.Date) (DailyStats, error) {
	day := s.resolveDate(date)

	adm, err := s.gate.Admit(ctx, day, 0)
	if err != nil {
		return DailyStats{}, err
	}

	events, err := s.store.ListWateringEvents(ctx, domain.EventFilter{Date: &day})
	if err != nil {
		return DailyStats{}, &domain.StorageError{Op: "list watering events", Err: err}
	}

	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.PlantName)
	}

	return DailyStats{
		Date:          day,
		Limit:         adm.Limit,
		Watered:       adm.AlreadyWatered,
		Remaining:     adm.Remaining(),
		WateredPlants: names,
	}, nil
}

// History returns watering events matching the filter, newest first.
func (s *WateringService) History(ctx context.Context, filter domain.EventFilter) ([]domain.WateringEvent, error) {
	events, err := s.store.ListWateringEvents(ctx, filter)
	if err != nil {
		return nil, &domain.StorageError{Op: "list watering events", Err: err}
	}
	return events, nil
}

// Limit returns the current daily watering limit.
func (s *WateringService) Limit(ctx context.Context) (int, error) {
	return s.gate.Limit(ctx)
}

// SetLimit replaces the daily watering limit.
func (s *WateringService) SetLimit(ctx context.Context, limit int) error {
	if err := s.gate.SetLimit(ctx, limit); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "daily watering limit changed", "limit", limit)
	return nil
}

func (s *WateringService) resolveDate(date *domain.Date) domain.Date {
	if date != nil && !date.IsZero() {
		return *date
	}
	return s.clock.Today()
}

// dedupe drops repeated references, keeping the first occurrence.
func dedupe(refs []PlantRef) []PlantRef {
	seen := make(map[PlantRef]bool, len(refs))
	out := make([]PlantRef, 0, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}
