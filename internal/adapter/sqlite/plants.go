package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

const plantColumns = `id, areal_id, name, health, image_path, size, position, growth_stage,
	last_watered, days_without_water, water_streak, total_water_count, created_at, updated_at`

// CreatePlant inserts a new plant and returns it with its store-assigned ID.
func (s *Store) CreatePlant(ctx context.Context, plant domain.Plant) (domain.Plant, error) {
	return createPlant(ctx, s.db, plant)
}

func createPlant(ctx context.Context, q execer, plant domain.Plant) (domain.Plant, error) {
	ts := now()
	res, err := q.ExecContext(ctx,
		`INSERT INTO plants (areal_id, name, health, image_path, size, position, growth_stage,
			last_watered, days_without_water, water_streak, total_water_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plant.ArealID, plant.Name, string(plant.Health), plant.ImagePath, string(plant.Size),
		plant.Position, plant.GrowthStage, nullDate(plant.LastWatered),
		plant.DaysWithoutWater, plant.WaterStreak, plant.TotalWaterCount, ts, ts,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Plant{}, &domain.PlantNameConflictError{Name: plant.Name}
		}
		if isForeignKeyViolation(err) {
			return domain.Plant{}, domain.ErrArealNotFound
		}
		return domain.Plant{}, fmt.Errorf("inserting plant: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Plant{}, fmt.Errorf("reading plant id: %w", err)
	}

	plant.ID = id
	plant.CreatedAt = parseTime(ts)
	plant.UpdatedAt = plant.CreatedAt
	return plant, nil
}

// GetPlant retrieves a plant by ID.
func (s *Store) GetPlant(ctx context.Context, id int64) (domain.Plant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE id = ?`, id,
	)
	return scanPlant(row)
}

// GetPlantByName retrieves a plant by its unique name.
func (s *Store) GetPlantByName(ctx context.Context, name string) (domain.Plant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE name = ?`, name,
	)
	return scanPlant(row)
}

// ListPlants returns plants matching the filter. Plants needing water come
// most neglected first; otherwise plants are ordered by name.
func (s *Store) ListPlants(ctx context.Context, filter domain.PlantFilter) ([]domain.Plant, error) {
	query := `SELECT ` + plantColumns + ` FROM plants`
	var (
		where []string
		args  []any
	)

	if filter.ArealID != "" {
		where = append(where, "areal_id = ?")
		args = append(args, filter.ArealID)
	}
	if filter.Health != nil {
		where = append(where, "health = ?")
		args = append(args, string(*filter.Health))
	}
	if filter.NeedsWater {
		where = append(where, "(health IN ('okay', 'dead') OR days_without_water >= 2)")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	if filter.NeedsWater {
		query += " ORDER BY days_without_water DESC, health = 'dead' DESC, water_streak ASC, name ASC"
	} else {
		query += " ORDER BY name ASC"
	}

	switch {
	case filter.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	case filter.Offset > 0:
		// SQLite needs a LIMIT before OFFSET; -1 means no limit.
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	return s.queryPlants(ctx, query, args...)
}

// SavePlant writes every mutable field of an existing plant.
func (s *Store) SavePlant(ctx context.Context, plant domain.Plant) error {
	return updatePlant(ctx, s.db, plant)
}

func updatePlant(ctx context.Context, q execer, plant domain.Plant) error {
	result, err := q.ExecContext(ctx,
		`UPDATE plants SET areal_id = ?, name = ?, health = ?, image_path = ?, size = ?, position = ?,
			growth_stage = ?, last_watered = ?, days_without_water = ?, water_streak = ?,
			total_water_count = ?, updated_at = ?
		 WHERE id = ?`,
		plant.ArealID, plant.Name, string(plant.Health), plant.ImagePath, string(plant.Size),
		plant.Position, plant.GrowthStage, nullDate(plant.LastWatered), plant.DaysWithoutWater,
		plant.WaterStreak, plant.TotalWaterCount, now(), plant.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.PlantNameConflictError{Name: plant.Name}
		}
		if isForeignKeyViolation(err) {
			return domain.ErrArealNotFound
		}
		return fmt.Errorf("updating plant: %w", err)
	}

	return requireAffected(result, domain.ErrPlantNotFound)
}

// DeletePlant removes a plant and, through the cascade, its history.
func (s *Store) DeletePlant(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM plants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting plant: %w", err)
	}
	return requireAffected(result, domain.ErrPlantNotFound)
}

// ListPlantsWithoutEventOn returns plants with neither a watering event nor a
// decay record on date.
func (s *Store) ListPlantsWithoutEventOn(ctx context.Context, date domain.Date) ([]domain.Plant, error) {
	d := date.String()
	return s.queryPlants(ctx,
		`SELECT `+plantColumns+` FROM plants
		 WHERE id NOT IN (SELECT plant_id FROM watering_history WHERE watering_date = ?)
		   AND id NOT IN (SELECT plant_id FROM decay_history WHERE decay_date = ?)
		 ORDER BY id`,
		d, d,
	)
}

func (s *Store) queryPlants(ctx context.Context, query string, args ...any) ([]domain.Plant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing plants: %w", err)
	}
	defer rows.Close()

	var plants []domain.Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

func scanPlant(row scanner) (domain.Plant, error) {
	var (
		p                    domain.Plant
		health, size         string
		lastWatered          sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(&p.ID, &p.ArealID, &p.Name, &health, &p.ImagePath, &size, &p.Position,
		&p.GrowthStage, &lastWatered, &p.DaysWithoutWater, &p.WaterStreak, &p.TotalWaterCount,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Plant{}, domain.ErrPlantNotFound
	}
	if err != nil {
		return domain.Plant{}, fmt.Errorf("scanning plant: %w", err)
	}

	if lastWatered.Valid {
		d, err := domain.ParseDate(lastWatered.String)
		if err != nil {
			return domain.Plant{}, fmt.Errorf("plant %d last_watered: %w", p.ID, err)
		}
		p.LastWatered = d
	}

	p.Health = domain.Health(health)
	p.Size = domain.Size(size)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// nullDate stores the zero Date as NULL.
func nullDate(d domain.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
