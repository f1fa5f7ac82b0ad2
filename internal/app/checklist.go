package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// ErrNoChecklistReader is returned when no vision reader is configured.
var ErrNoChecklistReader = errors.New("no checklist reader configured")

// ChecklistReadError is returned when the configured reader fails to read a
// checklist image.
type ChecklistReadError struct {
	Err error
}

func (e *ChecklistReadError) Error() string {
	return fmt.Sprintf("reading checklist: %v", e.Err)
}

func (e *ChecklistReadError) Unwrap() error {
	return e.Err
}

// ChecklistOutcome is a checklist read from an image and the watering it caused.
type ChecklistOutcome struct {
	Items   []domain.ChecklistItem
	Summary WateringSummary
}

// ChecklistService turns photographed paper checklists into watering requests.
type ChecklistService struct {
	reader   domain.ChecklistReader
	watering *WateringService
}

// NewChecklistService creates a service. reader may be nil, in which case
// every call fails with ErrNoChecklistReader.
func NewChecklistService(reader domain.ChecklistReader, watering *WateringService) *ChecklistService {
	return &ChecklistService{reader: reader, watering: watering}
}

// Enabled reports whether a reader is configured.
func (s *ChecklistService) Enabled() bool {
	return s.reader != nil
}

// ReadChecklist extracts the labelled checkboxes from image.
func (s *ChecklistService) ReadChecklist(ctx context.Context, image []byte, mimeType string) ([]domain.ChecklistItem, error) {
	if s.reader == nil {
		return nil, ErrNoChecklistReader
	}
	items, err := s.reader.ReadChecklist(ctx, image, mimeType)
	if err != nil {
		return nil, &ChecklistReadError{Err: err}
	}
	return items, nil
}

// WaterChecklist waters the plants whose boxes are ticked, in checklist order.
func (s *ChecklistService) WaterChecklist(ctx context.Context, image []byte, mimeType string, date *domain.Date) (ChecklistOutcome, error) {
	items, err := s.ReadChecklist(ctx, image, mimeType)
	if err != nil {
		return ChecklistOutcome{}, err
	}

	summary, err := s.watering.Water(ctx, CheckedRefs(items), date)
	return ChecklistOutcome{Items: items, Summary: summary}, err
}

// CheckedRefs returns a name reference for each ticked, non-blank label.
func CheckedRefs(items []domain.ChecklistItem) []PlantRef {
	refs := make([]PlantRef, 0, len(items))
	for _, item := range items {
		label := strings.TrimSpace(item.Label)
		if !item.Checked || label == "" {
			continue
		}
		refs = append(refs, ByName(label))
	}
	return refs
}
