package store

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/pbixinspect/internal/config"
	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// Open returns the history store selected by cfg: Postgres when a database
// URL is configured, otherwise an in-memory store holding memoryCapacity
// entries. With no database and memoryCapacity <= 0 it returns a nil store.
// The returned func releases the connection pool.
func Open(ctx context.Context, cfg *config.DatabaseConfig, memoryCapacity int) (core.HistoryStore, func(), error) {
	if !cfg.Enabled() {
		if memoryCapacity <= 0 {
			return nil, func() {}, nil
		}
		slog.Info("no database configured, keeping history in memory", "capacity", memoryCapacity)
		return NewMemory(memoryCapacity), func() {}, nil
	}

	pool, err := Connect(ctx, PoolConfig{
		URL:             cfg.URL,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
	})
	if err != nil {
		return nil, nil, err
	}

	pg, err := NewPostgres(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pg, pool.Close, nil
}
