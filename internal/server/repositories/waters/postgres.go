// Package waters provides the PostgreSQL-backed water entry repository.
package waters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/dbx"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
)

const entryColumns = `id, owner_id, date, amount, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanEntry(row *sql.Row) (*models.WaterEntry, error) {
	e := &models.WaterEntry{}
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Date, &e.Amount, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.WaterEntry) (*models.WaterEntry, error) {
	query := `
		INSERT INTO water_entries (owner_id, date, amount)
		VALUES ($1, $2, $3)
		RETURNING ` + entryColumns
	return scanEntry(r.db.QueryRowContext(ctx, query, entry.OwnerID, entry.Date, entry.Amount))
}

func (r *PostgresRepository) Update(ctx context.Context, entry *models.WaterEntry) (*models.WaterEntry, error) {
	query := `
		UPDATE water_entries
		SET date = $3, amount = $4, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + entryColumns
	return scanEntry(r.db.QueryRowContext(ctx, query, entry.ID, entry.OwnerID, entry.Date, entry.Amount))
}

// Delete returns the removed entry so callers can invalidate derived data.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID string, id string) (*models.WaterEntry, error) {
	query := `
		DELETE FROM water_entries
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + entryColumns
	return scanEntry(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// ListRange returns entries with from <= date < to, oldest first.
func (r *PostgresRepository) ListRange(ctx context.Context, ownerID string, from, to time.Time) ([]models.WaterEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM water_entries
		WHERE owner_id = $1 AND date >= $2 AND date < $3
		ORDER BY date, created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.WaterEntry, 0)
	for rows.Next() {
		var e models.WaterEntry
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Date, &e.Amount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// DailyTotals groups entries in [from, to) by UTC calendar day. Days without
// entries are omitted.
func (r *PostgresRepository) DailyTotals(ctx context.Context, ownerID string, from, to time.Time) ([]models.DayTotal, error) {
	query := `
		SELECT date_trunc('day', date AT TIME ZONE 'UTC') AS day, SUM(amount), COUNT(*)
		FROM water_entries
		WHERE owner_id = $1 AND date >= $2 AND date < $3
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.DayTotal, 0)
	for rows.Next() {
		var d models.DayTotal
		if err := rows.Scan(&d.Date, &d.Total, &d.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		d.Date = d.Date.UTC()
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
