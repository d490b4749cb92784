package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// maxPostgresList caps a single history listing.
const maxPostgresList = 500

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS analysis_history (
	id            UUID PRIMARY KEY,
	file_name     TEXT        NOT NULL,
	digest        TEXT        NOT NULL,
	size_bytes    BIGINT      NOT NULL,
	model_size    TEXT        NOT NULL DEFAULT '',
	table_count   INTEGER     NOT NULL DEFAULT 0,
	failed_tables INTEGER     NOT NULL DEFAULT 0,
	mode          TEXT        NOT NULL,
	source        TEXT        NOT NULL DEFAULT '',
	status        TEXT        NOT NULL,
	error         TEXT        NOT NULL DEFAULT '',
	duration_ms   BIGINT      NOT NULL DEFAULT 0,
	ip_address    TEXT        NOT NULL DEFAULT '',
	user_agent    TEXT        NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS analysis_history_created_at_idx ON analysis_history (created_at DESC);
`

const historyColumns = `id, file_name, digest, size_bytes, model_size, table_count, failed_tables,
	mode, source, status, error, duration_ms, ip_address, user_agent, created_at`

const selectHistoryColumns = `id::text, file_name, digest, size_bytes, model_size, table_count, failed_tables,
	mode, source, status, error, duration_ms, ip_address, user_agent, created_at`

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Postgres stores history in the analysis_history table.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens a pool with cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
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

// NewPostgres creates the history table if needed and returns the store.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, createHistoryTable); err != nil {
		return nil, fmt.Errorf("create analysis_history: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Record inserts an entry. Recording the same ID twice is a no-op.
func (p *Postgres) Record(ctx context.Context, e core.HistoryEntry) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO analysis_history (`+historyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.FileName, e.Digest, e.SizeBytes, e.ModelSize, e.TableCount, e.FailedTables,
		e.Mode, e.Source, e.Status, e.Error, e.DurationMS, e.IPAddress, e.UserAgent, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (p *Postgres) List(ctx context.Context, limit int) ([]core.HistoryEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+selectHistoryColumns+`
		FROM analysis_history
		ORDER BY created_at DESC
		LIMIT $1`,
		normalizeLimit(limit, maxPostgresList),
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return entries, nil
}

// DeleteBefore removes entries created before cutoff.
func (p *Postgres) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM analysis_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEntry(row pgx.CollectableRow) (core.HistoryEntry, error) {
	var e core.HistoryEntry
	err := row.Scan(
		&e.ID, &e.FileName, &e.Digest, &e.SizeBytes, &e.ModelSize, &e.TableCount, &e.FailedTables,
		&e.Mode, &e.Source, &e.Status, &e.Error, &e.DurationMS, &e.IPAddress, &e.UserAgent, &e.CreatedAt,
	)
	return e, err
}
