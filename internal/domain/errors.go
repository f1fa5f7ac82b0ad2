package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrPlantNotFound  = errors.New("plant not found")
	ErrArealNotFound  = errors.New("areal not found")
	ErrAlreadyWatered = errors.New("plant already watered on this date")
)

// PlantNameConflictError is returned when a plant name is already in use.
type PlantNameConflictError struct {
	Name string
}

func (e *PlantNameConflictError) Error() string {
	return fmt.Sprintf("plant name %q is already in use", e.Name)
}

// InvalidLimitError is returned when a daily watering limit is outside the admissible range.
type InvalidLimitError struct {
	Limit int
	Range LimitRange
}

func (e *InvalidLimitError) Error() string {
	return fmt.Sprintf("daily limit %d is outside the admissible range %d-%d", e.Limit, e.Range.Min, e.Range.Max)
}

// InvalidDateError is returned when a date string is not a YYYY-MM-DD calendar date.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", e.Value)
}

// TransitionError is returned when a health change is not part of the plant lifecycle.
type TransitionError struct {
	Event   Event
	Current Health
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from health %q", e.Event, e.Current)
}

// StorageError marks an unexpected failure of the plant record store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError is returned when a new areal or plant carries a missing or
// unknown attribute value.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}
