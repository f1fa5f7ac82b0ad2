// Package seed holds the default garden layout and reads layout files.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

//go:embed garden.yaml
var defaultLayout []byte

type layoutFile struct {
	Areals []arealEntry `yaml:"areals"`
}

type arealEntry struct {
	ID            string       `yaml:"id"`
	Name          string       `yaml:"name"`
	HorizontalPos string       `yaml:"horizontal_pos"`
	VerticalPos   string       `yaml:"vertical_pos"`
	Size          string       `yaml:"size"`
	Plants        []plantEntry `yaml:"plants"`
}

type plantEntry struct {
	Name     string `yaml:"name"`
	Health   string `yaml:"health"`
	Image    string `yaml:"image"`
	Size     string `yaml:"size"`
	Position string `yaml:"position"`
}

// Default returns the built-in garden layout.
func Default() ([]domain.ArealLayout, error) {
	return Parse(defaultLayout)
}

// Load reads a layout from a YAML file.
func Load(path string) ([]domain.ArealLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML layout. Areal IDs and plant names must be
// unique, and every plant needs a known health and size.
func Parse(data []byte) ([]domain.ArealLayout, error) {
	var file layoutFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding seed layout: %w", err)
	}
	if len(file.Areals) == 0 {
		return nil, errors.New("seed layout has no areals")
	}

	areals := make(map[string]bool, len(file.Areals))
	plants := make(map[string]bool)
	out := make([]domain.ArealLayout, 0, len(file.Areals))

	for _, a := range file.Areals {
		if a.ID == "" {
			return nil, &domain.ValidationError{Field: "areal id", Value: a.ID}
		}
		if areals[a.ID] {
			return nil, fmt.Errorf("duplicate areal %q in seed layout", a.ID)
		}
		areals[a.ID] = true

		entry := domain.ArealLayout{Areal: domain.Areal{
			ID:            a.ID,
			Name:          a.Name,
			HorizontalPos: a.HorizontalPos,
			VerticalPos:   a.VerticalPos,
			Size:          a.Size,
		}}

		for _, p := range a.Plants {
			if plants[p.Name] {
				return nil, &domain.PlantNameConflictError{Name: p.Name}
			}
			plants[p.Name] = true

			plant, err := p.toPlant(a.ID)
			if err != nil {
				return nil, err
			}
			entry.Plants = append(entry.Plants, plant)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (p plantEntry) toPlant(arealID string) (domain.Plant, error) {
	if p.Name == "" {
		return domain.Plant{}, &domain.ValidationError{Field: "plant name", Value: p.Name}
	}
	health := domain.Health(p.Health)
	if !health.Valid() {
		return domain.Plant{}, &domain.ValidationError{Field: "plant health", Value: p.Health}
	}
	size := domain.Size(p.Size)
	if !size.Valid() {
		return domain.Plant{}, &domain.ValidationError{Field: "plant size", Value: p.Size}
	}
	return domain.NewPlant(arealID, p.Name, p.Image, p.Position, health, size), nil
}
