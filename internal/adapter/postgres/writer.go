// Package postgres loads classified samples into PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-grid-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS classified_samples (
	id           TEXT PRIMARY KEY,
	lon          DOUBLE PRECISION NOT NULL,
	lat          DOUBLE PRECISION NOT NULL,
	year         INTEGER NOT NULL,
	scenario     TEXT NOT NULL,
	temperature  DOUBLE PRECISION NOT NULL,
	region       TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS classified_samples_region_idx
	ON classified_samples (region, scenario, year);
`

const insertSample = `
	INSERT INTO classified_samples (
		id, lon, lat, year, scenario, temperature, region, processed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING
`

// Writer persists classified samples. It implements pipeline.BatchLoader.
// Replayed samples are ignored by primary key, so redelivery after a failed
// commit is harmless.
type Writer struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewWriter opens a connection pool for url.
func NewWriter(ctx context.Context, url string, logger *slog.Logger) (*Writer, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &Writer{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the samples table and its index when missing.
func (w *Writer) EnsureSchema(ctx context.Context) error {
	if _, err := w.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// LoadBatch inserts the samples in one round trip.
func (w *Writer) LoadBatch(ctx context.Context, samples []domain.ClassifiedSample) error {
	if len(samples) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range samples {
		batch.Queue(insertSample, insertArgs(samples[i])...)
	}

	br := w.pool.SendBatch(ctx, batch)
	var inserted int64
	for range samples {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return fmt.Errorf("postgres: insert sample: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: close batch: %w", err)
	}

	w.logger.Debug("stored classified samples",
		"batch_size", len(samples),
		"inserted", inserted,
		"duplicates", int64(len(samples))-inserted,
	)
	return nil
}

// CountByRegion returns the number of stored samples per region.
func (w *Writer) CountByRegion(ctx context.Context) (map[domain.Region]int, error) {
	rows, err := w.pool.Query(ctx, `SELECT region, COUNT(*) FROM classified_samples GROUP BY region`)
	if err != nil {
		return nil, fmt.Errorf("postgres: count by region: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Region]int)
	for rows.Next() {
		var (
			region string
			n      int
		)
		if err := rows.Scan(&region, &n); err != nil {
			return nil, fmt.Errorf("postgres: scan region count: %w", err)
		}
		counts[domain.Region(region)] = n
	}
	return counts, rows.Err()
}

// CheckReadiness pings the database.
func (w *Writer) CheckReadiness(ctx context.Context) error {
	if err := w.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.pool.Close()
	return nil
}

func insertArgs(cs domain.ClassifiedSample) []any {
	return []any{
		cs.ID,
		cs.Lon,
		cs.Lat,
		cs.Year,
		string(cs.Scenario),
		cs.Temperature,
		string(cs.Region),
		cs.ProcessedAt,
	}
}
