package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/i474232898/geo-feature-maps/internal/imagery"
)

const generationsSchema = `
	CREATE TABLE IF NOT EXISTS map_generations (
		id          BIGSERIAL PRIMARY KEY,
		roi_key     TEXT        NOT NULL,
		min_lon     DOUBLE PRECISION NOT NULL,
		min_lat     DOUBLE PRECISION NOT NULL,
		max_lon     DOUBLE PRECISION NOT NULL,
		max_lat     DOUBLE PRECISION NOT NULL,
		feature     TEXT        NOT NULL,
		start_date  DATE        NOT NULL,
		end_date    DATE        NOT NULL,
		map_id      TEXT        NOT NULL,
		months      INTEGER     NOT NULL,
		null_months INTEGER     NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`

// PostgresRecorder writes one row per successful map generation.
type PostgresRecorder struct {
	db *sqlx.DB
}

var _ imagery.Recorder = (*PostgresRecorder)(nil)

// NewPostgresRecorder connects to connStr and makes sure the table exists.
func NewPostgresRecorder(ctx context.Context, connStr string) (*PostgresRecorder, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, generationsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create map_generations table: %w", err)
	}
	return &PostgresRecorder{db: db}, nil
}

func (r *PostgresRecorder) RecordGeneration(ctx context.Context, rec imagery.GenerationRecord) error {
	const query = `
		INSERT INTO map_generations (
			roi_key, min_lon, min_lat, max_lon, max_lat,
			feature, start_date, end_date,
			map_id, months, null_months, created_at
		) VALUES (
			:roi_key, :min_lon, :min_lat, :max_lon, :max_lat,
			:feature, :start_date, :end_date,
			:map_id, :months, :null_months, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, map[string]any{
		"roi_key":     rec.ROIKey,
		"min_lon":     rec.Bound.Min.Lon(),
		"min_lat":     rec.Bound.Min.Lat(),
		"max_lon":     rec.Bound.Max.Lon(),
		"max_lat":     rec.Bound.Max.Lat(),
		"feature":     string(rec.Feature),
		"start_date":  rec.StartDate,
		"end_date":    rec.EndDate,
		"map_id":      rec.MapID,
		"months":      rec.Months,
		"null_months": rec.NullCount,
		"created_at":  rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert map generation: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
