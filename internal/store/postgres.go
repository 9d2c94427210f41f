// Package store provides the record sources grids read from: a PostgreSQL
// source backed by a pgx pool and an in-memory source for demos and tests.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/admingrid/internal/core"
)

// Querier is the part of *pgxpool.Pool the source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NewPool parses cfg, connects and pings the database.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// PostgresSource reads each grid's table in full. Filtering, sorting and
// paging all happen in memory in the engine.
type PostgresSource struct {
	db      Querier
	maxRows int
}

// NewPostgresSource creates a source over db. maxRows caps a fetch; zero
// means no cap.
func NewPostgresSource(db Querier, maxRows int) *PostgresSource {
	return &PostgresSource{db: db, maxRows: maxRows}
}

// Fetch selects every column of the grid's table.
func (s *PostgresSource) Fetch(ctx context.Context, def core.Definition) ([]core.Record, error) {
	query, args := selectQuery(def.Table, s.maxRows)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", def.Table, err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// selectQuery builds the table scan for one grid.
func selectQuery(table string, limit int) (string, []any) {
	query := "SELECT * FROM " + pgx.Identifier{table}.Sanitize()
	if limit > 0 {
		return query + " LIMIT $1", []any{limit}
	}
	return query, nil
}

// collectRecords turns result rows into records keyed by column name.
func collectRecords(rows pgx.Rows) ([]core.Record, error) {
	fields := rows.FieldDescriptions()

	var records []core.Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}

		rec := make(core.Record, len(fields))
		for i, f := range fields {
			rec[f.Name] = values[i]
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}
