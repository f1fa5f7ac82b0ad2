package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// SaveAreal inserts an areal or updates the existing one with the same ID.
// An upsert rather than a replace, so the areal's plants survive.
func (s *Store) SaveAreal(ctx context.Context, areal domain.Areal) error {
	return saveAreal(ctx, s.db, areal)
}

func saveAreal(ctx context.Context, q execer, areal domain.Areal) error {
	ts := now()
	_, err := q.ExecContext(ctx,
		`INSERT INTO areals (id, name, horizontal_pos, vertical_pos, size, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			horizontal_pos = excluded.horizontal_pos,
			vertical_pos = excluded.vertical_pos,
			size = excluded.size,
			updated_at = excluded.updated_at`,
		areal.ID, areal.Name, areal.HorizontalPos, areal.VerticalPos, areal.Size, ts, ts,
	)
	if err != nil {
		return fmt.Errorf("saving areal: %w", err)
	}
	return nil
}

// GetAreal retrieves an areal by ID.
func (s *Store) GetAreal(ctx context.Context, id string) (domain.Areal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, horizontal_pos, vertical_pos, size, created_at, updated_at
		 FROM areals WHERE id = ?`, id,
	)
	return scanAreal(row)
}

// ListAreals returns every areal ordered by ID.
func (s *Store) ListAreals(ctx context.Context) ([]domain.Areal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, horizontal_pos, vertical_pos, size, created_at, updated_at
		 FROM areals ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing areals: %w", err)
	}
	defer rows.Close()

	var areals []domain.Areal
	for rows.Next() {
		a, err := scanAreal(rows)
		if err != nil {
			return nil, err
		}
		areals = append(areals, a)
	}
	return areals, rows.Err()
}

// DeleteAreal removes an areal together with its plants.
func (s *Store) DeleteAreal(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM areals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting areal: %w", err)
	}
	return requireAffected(result, domain.ErrArealNotFound)
}

func scanAreal(row scanner) (domain.Areal, error) {
	var (
		a                    domain.Areal
		createdAt, updatedAt string
	)

	err := row.Scan(&a.ID, &a.Name, &a.HorizontalPos, &a.VerticalPos, &a.Size, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Areal{}, domain.ErrArealNotFound
	}
	if err != nil {
		return domain.Areal{}, fmt.Errorf("scanning areal: %w", err)
	}

	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}

// SeedLayout stores every areal and plant of layout in one transaction, but
// only when the garden has no areals. It reports whether anything was written.
func (s *Store) SeedLayout(ctx context.Context, layout []domain.ArealLayout) (bool, error) {
	seeded := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM areals`).Scan(&n); err != nil {
			return fmt.Errorf("counting areals: %w", err)
		}
		if n > 0 {
			return nil
		}

		for _, entry := range layout {
			if err := saveAreal(ctx, tx, entry.Areal); err != nil {
				return fmt.Errorf("seeding areal %q: %w", entry.Areal.ID, err)
			}
			for _, p := range entry.Plants {
				p.ArealID = entry.Areal.ID
				if _, err := createPlant(ctx, tx, p); err != nil {
					return fmt.Errorf("seeding plant %q: %w", p.Name, err)
				}
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}
