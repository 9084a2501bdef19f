package postgres

import (
	"context"
	"database/sql"

	"recordapi/internal/model"
	"recordapi/internal/repository"
)

// RecordPostgres is a PostgreSQL implementation of repository.RecordRepository,
// used as a local stand-in for the managed table.
type RecordPostgres struct {
	db *sql.DB
}

// NewRecordPostgres creates a new RecordPostgres repository.
func NewRecordPostgres(db *sql.DB) *RecordPostgres {
	return &RecordPostgres{db: db}
}

var _ repository.RecordRepository = (*RecordPostgres)(nil)

// Put upserts a record row; the last write for an id wins, as in the managed table.
func (r *RecordPostgres) Put(ctx context.Context, rec *model.Record) error {
	const q = `
		INSERT INTO records (id, year, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET year = EXCLUDED.year, title = EXCLUDED.title
	`
	_, err := r.db.ExecContext(ctx, q, rec.ID, rec.Year.String(), rec.Title)
	return err
}

// Scan returns all rows with no limit.
func (r *RecordPostgres) Scan(ctx context.Context) ([]model.Record, error) {
	const q = `SELECT id, year::text, title FROM records`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Record, 0)
	for rows.Next() {
		var (
			rec  model.Record
			year string
		)
		if err := rows.Scan(&rec.ID, &year, &rec.Title); err != nil {
			return nil, err
		}
		rec.Year = model.Year(year)
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
