package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// RecordWatering inserts the watering event for plant on date and saves the
// watered plant in one transaction. The (plant, date) uniqueness is enforced
// by the table.
func (s *Store) RecordWatering(ctx context.Context, plant domain.Plant, date domain.Date) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO watering_history (plant_id, watering_date, created_at) VALUES (?, ?, ?)`,
			plant.ID, date.String(), now(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyWatered
			}
			if isForeignKeyViolation(err) {
				return domain.ErrPlantNotFound
			}
			return fmt.Errorf("inserting watering event: %w", err)
		}
		return updatePlant(ctx, tx, plant)
	})
}

// CountEventsOn returns how many plants were watered on date.
func (s *Store) CountEventsOn(ctx context.Context, date domain.Date) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM watering_history WHERE watering_date = ?`, date.String(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting watering events: %w", err)
	}
	return n, nil
}

// ListWateringEvents returns watering events, newest first.
func (s *Store) ListWateringEvents(ctx context.Context, filter domain.EventFilter) ([]domain.WateringEvent, error) {
	query := `SELECT h.plant_id, p.name, h.watering_date, h.created_at
		FROM watering_history h JOIN plants p ON p.id = h.plant_id`
	var (
		where []string
		args  []any
	)

	if filter.PlantID != nil {
		where = append(where, "h.plant_id = ?")
		args = append(args, *filter.PlantID)
	}
	if filter.Date != nil {
		where = append(where, "h.watering_date = ?")
		args = append(args, filter.Date.String())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY h.watering_date DESC, h.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing watering events: %w", err)
	}
	defer rows.Close()

	var events []domain.WateringEvent
	for rows.Next() {
		var (
			e               domain.WateringEvent
			date, createdAt string
		)
		if err := rows.Scan(&e.PlantID, &e.PlantName, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning watering event: %w", err)
		}
		if e.Date, err = domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("watering event date: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

// RecordDecay marks that the decay engine ran for plant on date and saves the
// decayed plant in one transaction. If the plant already has a decay record
// on date nothing is written and decayed is false.
func (s *Store) RecordDecay(ctx context.Context, plant domain.Plant, date domain.Date) (bool, error) {
	decayed := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO decay_history (plant_id, decay_date, created_at) VALUES (?, ?, ?)
			 ON CONFLICT (plant_id, decay_date) DO NOTHING`,
			plant.ID, date.String(), now(),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrPlantNotFound
			}
			return fmt.Errorf("recording decay: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return nil
		}
		if err := updatePlant(ctx, tx, plant); err != nil {
			return err
		}
		decayed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return decayed, nil
}

// GetDailyLimit returns the configured number of plants that may be watered per day.
func (s *Store) GetDailyLimit(ctx context.Context) (int, error) {
	var limit int
	err := s.db.QueryRowContext(ctx,
		`SELECT max_plants_per_day FROM daily_watering_config WHERE id = 1`,
	).Scan(&limit)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultDailyLimit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading daily limit: %w", err)
	}
	return limit, nil
}

// SetDailyLimit stores the daily limit. Range validation is the caller's job.
func (s *Store) SetDailyLimit(ctx context.Context, limit int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_watering_config (id, max_plants_per_day, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			max_plants_per_day = excluded.max_plants_per_day,
			updated_at = excluded.updated_at`,
		limit, now(),
	)
	if err != nil {
		return fmt.Errorf("setting daily limit: %w", err)
	}
	return nil
}
