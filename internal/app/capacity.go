package app

import (
	"context"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// capacityStore is the slice of the store the gate reads and writes.
type capacityStore interface {
	CountEventsOn(ctx context.Context, date domain.Date) (int, error)
	GetDailyLimit(ctx context.Context) (int, error)
	SetDailyLimit(ctx context.Context, limit int) error
}

// CapacityGate admits watering requests against the daily limit.
// It keeps no state of its own: every answer is re-derived from the store.
type CapacityGate struct {
	store  capacityStore
	limits domain.LimitRange
}

// NewCapacityGate creates a gate that accepts limits within limits.
func NewCapacityGate(store capacityStore, limits domain.LimitRange) *CapacityGate {
	return &CapacityGate{store: store, limits: limits}
}

// Admit reports how many of requested plants may be watered on date.
// A reached limit is a normal outcome, reported through the Admission.
func (g *CapacityGate) Admit(ctx context.Context, date domain.Date, requested int) (domain.Admission, error) {
	limit, err := g.Limit(ctx)
	if err != nil {
		return domain.Admission{}, err
	}

	watered, err := g.store.CountEventsOn(ctx, date)
	if err != nil {
		return domain.Admission{}, &domain.StorageError{Op: "count watering events", Err: err}
	}

	adm := domain.Admission{
		Limit:          limit,
		AlreadyWatered: watered,
		Requested:      max(0, requested),
	}
	adm.Granted = min(adm.Requested, adm.Remaining())
	return adm, nil
}

// Limit returns the current daily limit.
func (g *CapacityGate) Limit(ctx context.Context) (int, error) {
	limit, err := g.store.GetDailyLimit(ctx)
	if err != nil {
		return 0, &domain.StorageError{Op: "read daily limit", Err: err}
	}
	return limit, nil
}

// SetLimit replaces the daily limit. Out-of-range values are rejected
// before anything is written; past dates are not affected.
func (g *CapacityGate) SetLimit(ctx context.Context, limit int) error {
	if err := g.limits.Check(limit); err != nil {
		return err
	}
	if err := g.store.SetDailyLimit(ctx, limit); err != nil {
		return &domain.StorageError{Op: "set daily limit", Err: err}
	}
	return nil
}
