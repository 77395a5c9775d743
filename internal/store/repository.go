package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sv650s/springboard/internal/contracts"
)

// ErrNotFound is returned when no stats run exists for a dataset
var ErrNotFound = errors.New("stats run not found")

const schema = `
CREATE SCHEMA IF NOT EXISTS quandl;

CREATE TABLE IF NOT EXISTS quandl.datasets (
	database_code TEXT NOT NULL,
	dataset_code  TEXT NOT NULL,
	column_names  JSONB NOT NULL,
	start_date    TEXT,
	end_date      TEXT,
	fetched_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (database_code, dataset_code)
);

CREATE TABLE IF NOT EXISTS quandl.daily_rows (
	database_code TEXT NOT NULL,
	dataset_code  TEXT NOT NULL,
	trade_date    TEXT NOT NULL,
	row_data      JSONB NOT NULL,
	PRIMARY KEY (database_code, dataset_code, trade_date)
);

CREATE TABLE IF NOT EXISTS quandl.stats_runs (
	id                     BIGSERIAL PRIMARY KEY,
	database_code          TEXT NOT NULL,
	dataset_code           TEXT NOT NULL,
	start_date             TEXT,
	end_date               TEXT,
	entries                INTEGER NOT NULL,
	min_open_price         DOUBLE PRECISION NOT NULL,
	max_open_price         DOUBLE PRECISION NOT NULL,
	max_daily_change       DOUBLE PRECISION NOT NULL,
	max_two_day_change     DOUBLE PRECISION NOT NULL,
	average_trading_volume DOUBLE PRECISION NOT NULL,
	median_volume          DOUBLE PRECISION NOT NULL,
	computed_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_stats_runs_dataset
	ON quandl.stats_runs (database_code, dataset_code, computed_at DESC);
`

// Repository persists fetched datasets and computed statistics
// ⭐ SSOT: quandl.* tables are written here only
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the tables when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveDataset upserts the dataset header and every dated row
func (r *Repository) SaveDataset(ctx context.Context, ds *contracts.Dataset) error {
	dateIdx := ds.ColumnIndex(contracts.ColumnDate)
	if dateIdx < 0 {
		return fmt.Errorf("dataset %s/%s has no %s column", ds.DatabaseCode, ds.TickerCode, contracts.ColumnDate)
	}

	columns, err := json.Marshal(ds.ColumnNames)
	if err != nil {
		return fmt.Errorf("failed to marshal column names: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO quandl.datasets (database_code, dataset_code, column_names, start_date, end_date, fetched_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (database_code, dataset_code) DO UPDATE SET
			column_names = EXCLUDED.column_names,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			fetched_at = EXCLUDED.fetched_at
	`, ds.DatabaseCode, ds.TickerCode, columns, ds.StartDate, ds.EndDate)
	if err != nil {
		return fmt.Errorf("failed to save dataset header: %w", err)
	}

	query := `
		INSERT INTO quandl.daily_rows (database_code, dataset_code, trade_date, row_data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (database_code, dataset_code, trade_date) DO UPDATE SET
			row_data = EXCLUDED.row_data
	`

	batch := &pgx.Batch{}
	for _, row := range ds.Data {
		if dateIdx >= len(row) || row[dateIdx].IsNull() {
			continue
		}
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to marshal row: %w", err)
		}
		batch.Queue(query, ds.DatabaseCode, ds.TickerCode, row[dateIdx].String(), data)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save rows: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// LoadDataset reads back the stored rows of a dataset in date order
func (r *Repository) LoadDataset(ctx context.Context, database, ticker string) (*contracts.Dataset, error) {
	ds := &contracts.Dataset{DatabaseCode: database, TickerCode: ticker, Order: "asc"}

	var columns []byte
	err := r.pool.QueryRow(ctx, `
		SELECT column_names, COALESCE(start_date, ''), COALESCE(end_date, '')
		FROM quandl.datasets
		WHERE database_code = $1 AND dataset_code = $2
	`, database, ticker).Scan(&columns, &ds.StartDate, &ds.EndDate)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("dataset %s/%s: %w", database, ticker, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	if err := json.Unmarshal(columns, &ds.ColumnNames); err != nil {
		return nil, fmt.Errorf("failed to unmarshal column names: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT row_data
		FROM quandl.daily_rows
		WHERE database_code = $1 AND dataset_code = $2
		ORDER BY trade_date ASC
	`, database, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var record contracts.Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row: %w", err)
		}
		ds.Data = append(ds.Data, record)
	}
	return ds, rows.Err()
}

// SaveStats inserts one stats run and fills in its ID and timestamp
func (r *Repository) SaveStats(ctx context.Context, run *contracts.StatsRun) error {
	query := `
		INSERT INTO quandl.stats_runs (
			database_code, dataset_code, start_date, end_date, entries,
			min_open_price, max_open_price, max_daily_change, max_two_day_change,
			average_trading_volume, median_volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, computed_at
	`

	s := run.Stats
	err := r.pool.QueryRow(ctx, query,
		run.Database, run.Ticker, run.StartDate, run.EndDate, run.Entries,
		s.MinOpenPrice, s.MaxOpenPrice, s.MaxDailyChange, s.MaxTwoDayChange,
		s.AverageTradingVolume, s.MedianVolume,
	).Scan(&run.ID, &run.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to save stats run: %w", err)
	}
	return nil
}

// LatestStats returns the most recent stats run of a dataset
func (r *Repository) LatestStats(ctx context.Context, database, ticker string) (*contracts.StatsRun, error) {
	query := `
		SELECT id, database_code, dataset_code, COALESCE(start_date, ''), COALESCE(end_date, ''), entries,
			min_open_price, max_open_price, max_daily_change, max_two_day_change,
			average_trading_volume, median_volume, computed_at
		FROM quandl.stats_runs
		WHERE database_code = $1 AND dataset_code = $2
		ORDER BY computed_at DESC, id DESC
		LIMIT 1
	`

	var run contracts.StatsRun
	var computedAt time.Time
	s := &run.Stats
	err := r.pool.QueryRow(ctx, query, database, ticker).Scan(
		&run.ID, &run.Database, &run.Ticker, &run.StartDate, &run.EndDate, &run.Entries,
		&s.MinOpenPrice, &s.MaxOpenPrice, &s.MaxDailyChange, &s.MaxTwoDayChange,
		&s.AverageTradingVolume, &s.MedianVolume, &computedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%s/%s: %w", database, ticker, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest stats: %w", err)
	}
	run.ComputedAt = computedAt
	return &run, nil
}
