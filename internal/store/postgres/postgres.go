package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

// Repository is a Postgres-backed surf.Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wraps an existing pool. Call EnsureSchema before using it.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the forecasts and api_requests tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddl := `
CREATE TABLE IF NOT EXISTS forecasts (
  provider TEXT NOT NULL,
  spot_id BIGINT NOT NULL,
  ts TIMESTAMPTZ NOT NULL,
  min_height DOUBLE PRECISION,
  max_height DOUBLE PRECISION,
  height DOUBLE PRECISION,
  rating INTEGER,
  wind_effect INTEGER,
  swell_rating NUMERIC,
  optimal_wind BOOLEAN,
  api_request UUID NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (provider, spot_id, ts)
);
CREATE TABLE IF NOT EXISTS api_requests (
  id UUID PRIMARY KEY,
  provider TEXT NOT NULL,
  spot_id BIGINT NOT NULL,
  url TEXT NOT NULL,
  requested_at TIMESTAMPTZ NOT NULL,
  status INTEGER NOT NULL,
  error TEXT NOT NULL
);`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ERROR creating forecast tables: %w", err)
	}
	return nil
}

const selectColumns = `provider, spot_id, ts, min_height, max_height, height, rating, wind_effect, swell_rating, optimal_wind, api_request, updated_at`

func scanRecord(row pgx.Row) (surf.ForecastRecord, error) {
	var rec surf.ForecastRecord
	err := row.Scan(
		&rec.Provider,
		&rec.SpotID,
		&rec.Timestamp,
		&rec.MinHeight,
		&rec.MaxHeight,
		&rec.Height,
		&rec.Rating,
		&rec.WindEffect,
		&rec.SwellRating,
		&rec.OptimalWind,
		&rec.APIRequest,
		&rec.UpdatedAt,
	)
	rec.Timestamp = rec.Timestamp.UTC()
	return rec, err
}

// Upsert serializes writers to one key with a transaction-scoped advisory
// lock, then finds or initializes the record, applies the mutation and
// writes it back with ON CONFLICT when apply returns true.
func (r *Repository) Upsert(ctx context.Context, key surf.RecordKey, apply func(*surf.ForecastRecord) bool) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ts := key.Timestamp.UTC()
	lockKey := fmt.Sprintf("%s:%d:%d", key.Provider, key.SpotID, ts.UnixNano())
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return false, fmt.Errorf("lock %s: %w", lockKey, err)
	}

	row := tx.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM forecasts WHERE provider=$1 AND spot_id=$2 AND ts=$3 FOR UPDATE`,
		key.Provider, key.SpotID, ts)
	rec, err := scanRecord(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		rec = surf.ForecastRecord{Provider: key.Provider, SpotID: key.SpotID, Timestamp: ts}
	case err != nil:
		return false, fmt.Errorf("load forecast: %w", err)
	}

	if !apply(&rec) {
		return false, tx.Commit(ctx)
	}
	rec.UpdatedAt = time.Now().UTC()

	const query = `
INSERT INTO forecasts (provider, spot_id, ts, min_height, max_height, height, rating, wind_effect, swell_rating, optimal_wind, api_request, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (provider, spot_id, ts)
DO UPDATE SET
  min_height = EXCLUDED.min_height,
  max_height = EXCLUDED.max_height,
  height = EXCLUDED.height,
  rating = EXCLUDED.rating,
  wind_effect = EXCLUDED.wind_effect,
  swell_rating = EXCLUDED.swell_rating,
  optimal_wind = EXCLUDED.optimal_wind,
  api_request = EXCLUDED.api_request,
  updated_at = EXCLUDED.updated_at;
`
	_, err = tx.Exec(ctx, query,
		rec.Provider,
		rec.SpotID,
		ts,
		rec.MinHeight,
		rec.MaxHeight,
		rec.Height,
		rec.Rating,
		rec.WindEffect,
		rec.SwellRating,
		rec.OptimalWind,
		rec.APIRequest,
		rec.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upsert forecast: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// Records returns a spot's records ordered by timestamp. Zero bounds are open.
func (r *Repository) Records(ctx context.Context, provider string, spotID int64, from, to time.Time) ([]surf.ForecastRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM forecasts
WHERE provider=$1 AND spot_id=$2
  AND ($3::timestamptz IS NULL OR ts >= $3)
  AND ($4::timestamptz IS NULL OR ts <= $4)
ORDER BY ts`,
		provider, spotID, nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("query forecasts: %w", err)
	}
	defer rows.Close()

	var out []surf.ForecastRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveRequest records a fetch attempt.
func (r *Repository) SaveRequest(ctx context.Context, req surf.APIRequest) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO api_requests (id, provider, spot_id, url, requested_at, status, error)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, error = EXCLUDED.error`,
		req.ID, req.Provider, req.SpotID, req.URL, req.RequestedAt.UTC(), req.Status, req.Err)
	if err != nil {
		return fmt.Errorf("insert api request: %w", err)
	}
	return nil
}

// Requests returns a spot's fetch attempts ordered by request time.
func (r *Repository) Requests(ctx context.Context, spotID int64) ([]surf.APIRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, provider, spot_id, url, requested_at, status, error FROM api_requests
WHERE spot_id=$1
ORDER BY requested_at`,
		spotID)
	if err != nil {
		return nil, fmt.Errorf("query api requests: %w", err)
	}
	defer rows.Close()

	out := make([]surf.APIRequest, 0)
	for rows.Next() {
		var req surf.APIRequest
		if err := rows.Scan(&req.ID, &req.Provider, &req.SpotID, &req.URL, &req.RequestedAt, &req.Status, &req.Err); err != nil {
			return nil, fmt.Errorf("scan api request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// Close helps when wiring Repository to a lifecycle manager.
func (r *Repository) Close() {
	r.pool.Close()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

// NewDB opens a pgx pool with tuned defaults.
func NewDB(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	// One connection per concurrent spot fetch is plenty.
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}
