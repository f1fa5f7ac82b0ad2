package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

const tracerName = "github.com/neomorfeo/lifegarden/internal/adapter/otel"

// TracingStore wraps a domain.Store with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingStore struct {
	next   domain.Store
	tracer trace.Tracer
}

// Compile-time check: TracingStore implements domain.Store.
var _ domain.Store = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.Store) *TracingStore {
	return &TracingStore{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *TracingStore) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finish records err on span, if any, and ends it.
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func plantAttrs(p domain.Plant) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("plant.id", p.ID),
		attribute.String("plant.name", p.Name),
		attribute.String("plant.health", string(p.Health)),
	}
}

func (s *TracingStore) CreatePlant(ctx context.Context, plant domain.Plant) (domain.Plant, error) {
	ctx, span := s.start(ctx, "PlantRepository.CreatePlant",
		attribute.String("plant.name", plant.Name),
		attribute.String("areal.id", plant.ArealID),
	)
	created, err := s.next.CreatePlant(ctx, plant)
	if err == nil {
		span.SetAttributes(attribute.Int64("plant.id", created.ID))
	}
	finish(span, err)
	return created, err
}

func (s *TracingStore) GetPlant(ctx context.Context, id int64) (domain.Plant, error) {
	ctx, span := s.start(ctx, "PlantRepository.GetPlant", attribute.Int64("plant.id", id))
	plant, err := s.next.GetPlant(ctx, id)
	finish(span, err)
	return plant, err
}

func (s *TracingStore) GetPlantByName(ctx context.Context, name string) (domain.Plant, error) {
	ctx, span := s.start(ctx, "PlantRepository.GetPlantByName", attribute.String("plant.name", name))
	plant, err := s.next.GetPlantByName(ctx, name)
	finish(span, err)
	return plant, err
}

func (s *TracingStore) ListPlants(ctx context.Context, filter domain.PlantFilter) ([]domain.Plant, error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("filter.needs_water", filter.NeedsWater),
		attribute.Int("filter.limit", filter.Limit),
		attribute.Int("filter.offset", filter.Offset),
	}
	if filter.ArealID != "" {
		attrs = append(attrs, attribute.String("filter.areal_id", filter.ArealID))
	}
	if filter.Health != nil {
		attrs = append(attrs, attribute.String("filter.health", string(*filter.Health)))
	}

	ctx, span := s.start(ctx, "PlantRepository.ListPlants", attrs...)
	plants, err := s.next.ListPlants(ctx, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(plants)))
	}
	finish(span, err)
	return plants, err
}

func (s *TracingStore) SavePlant(ctx context.Context, plant domain.Plant) error {
	ctx, span := s.start(ctx, "PlantRepository.SavePlant", plantAttrs(plant)...)
	err := s.next.SavePlant(ctx, plant)
	finish(span, err)
	return err
}

func (s *TracingStore) DeletePlant(ctx context.Context, id int64) error {
	ctx, span := s.start(ctx, "PlantRepository.DeletePlant", attribute.Int64("plant.id", id))
	err := s.next.DeletePlant(ctx, id)
	finish(span, err)
	return err
}

func (s *TracingStore) ListPlantsWithoutEventOn(ctx context.Context, date domain.Date) ([]domain.Plant, error) {
	ctx, span := s.start(ctx, "PlantRepository.ListPlantsWithoutEventOn", attribute.String("watering.date", date.String()))
	plants, err := s.next.ListPlantsWithoutEventOn(ctx, date)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(plants)))
	}
	finish(span, err)
	return plants, err
}

func (s *TracingStore) SaveAreal(ctx context.Context, areal domain.Areal) error {
	ctx, span := s.start(ctx, "ArealRepository.SaveAreal", attribute.String("areal.id", areal.ID))
	err := s.next.SaveAreal(ctx, areal)
	finish(span, err)
	return err
}

func (s *TracingStore) GetAreal(ctx context.Context, id string) (domain.Areal, error) {
	ctx, span := s.start(ctx, "ArealRepository.GetAreal", attribute.String("areal.id", id))
	areal, err := s.next.GetAreal(ctx, id)
	finish(span, err)
	return areal, err
}

func (s *TracingStore) ListAreals(ctx context.Context) ([]domain.Areal, error) {
	ctx, span := s.start(ctx, "ArealRepository.ListAreals")
	areals, err := s.next.ListAreals(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(areals)))
	}
	finish(span, err)
	return areals, err
}

func (s *TracingStore) DeleteAreal(ctx context.Context, id string) error {
	ctx, span := s.start(ctx, "ArealRepository.DeleteAreal", attribute.String("areal.id", id))
	err := s.next.DeleteAreal(ctx, id)
	finish(span, err)
	return err
}

func (s *TracingStore) SeedLayout(ctx context.Context, layout []domain.ArealLayout) (bool, error) {
	ctx, span := s.start(ctx, "ArealRepository.SeedLayout", attribute.Int("layout.areals", len(layout)))
	seeded, err := s.next.SeedLayout(ctx, layout)
	if err == nil {
		span.SetAttributes(attribute.Bool("result.seeded", seeded))
	}
	finish(span, err)
	return seeded, err
}

func (s *TracingStore) RecordWatering(ctx context.Context, plant domain.Plant, date domain.Date) error {
	attrs := append(plantAttrs(plant), attribute.String("watering.date", date.String()))
	ctx, span := s.start(ctx, "WateringRepository.RecordWatering", attrs...)
	err := s.next.RecordWatering(ctx, plant, date)
	finish(span, err)
	return err
}

func (s *TracingStore) CountEventsOn(ctx context.Context, date domain.Date) (int, error) {
	ctx, span := s.start(ctx, "WateringRepository.CountEventsOn", attribute.String("watering.date", date.String()))
	n, err := s.next.CountEventsOn(ctx, date)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", n))
	}
	finish(span, err)
	return n, err
}

func (s *TracingStore) ListWateringEvents(ctx context.Context, filter domain.EventFilter) ([]domain.WateringEvent, error) {
	attrs := []attribute.KeyValue{attribute.Int("filter.limit", filter.Limit)}
	if filter.PlantID != nil {
		attrs = append(attrs, attribute.Int64("filter.plant_id", *filter.PlantID))
	}
	if filter.Date != nil {
		attrs = append(attrs, attribute.String("filter.date", filter.Date.String()))
	}

	ctx, span := s.start(ctx, "WateringRepository.ListWateringEvents", attrs...)
	events, err := s.next.ListWateringEvents(ctx, filter)
	finish(span, err)
	return events, err
}

func (s *TracingStore) RecordDecay(ctx context.Context, plant domain.Plant, date domain.Date) (bool, error) {
	attrs := append(plantAttrs(plant), attribute.String("watering.date", date.String()))
	ctx, span := s.start(ctx, "WateringRepository.RecordDecay", attrs...)
	decayed, err := s.next.RecordDecay(ctx, plant, date)
	if err == nil {
		span.SetAttributes(attribute.Bool("result.decayed", decayed))
	}
	finish(span, err)
	return decayed, err
}

func (s *TracingStore) GetDailyLimit(ctx context.Context) (int, error) {
	ctx, span := s.start(ctx, "WateringRepository.GetDailyLimit")
	limit, err := s.next.GetDailyLimit(ctx)
	finish(span, err)
	return limit, err
}

func (s *TracingStore) SetDailyLimit(ctx context.Context, limit int) error {
	ctx, span := s.start(ctx, "WateringRepository.SetDailyLimit", attribute.Int("watering.limit", limit))
	err := s.next.SetDailyLimit(ctx, limit)
	finish(span, err)
	return err
}
