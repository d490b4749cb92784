package core

// scheduler.go provides background maintenance for the history store.
//
// The pruner deletes history entries older than the retention period. It
// runs immediately on start, then every interval, and stops when its context
// is cancelled. A failed run is logged and retried on the next tick; it
// never stops the application.

import (
	"context"
	"log/slog"
	"time"
)

// PruneConfig holds configuration for the history pruner.
// Zero values fall back to the defaults below.
type PruneConfig struct {
	Retention time.Duration // Age after which entries are deleted (default: 30 days)
	Interval  time.Duration // How often to run (default: 1h)
}

const (
	DefaultHistoryRetention = 30 * 24 * time.Hour
	DefaultPruneInterval    = time.Hour
)

func (c PruneConfig) withDefaults() PruneConfig {
	if c.Retention <= 0 {
		c.Retention = DefaultHistoryRetention
	}
	if c.Interval <= 0 {
		c.Interval = DefaultPruneInterval
	}
	return c
}

// StartHistoryPruner periodically deletes old history entries.
// It blocks until ctx is cancelled; run it in its own goroutine.
func (s *Service) StartHistoryPruner(ctx context.Context, cfg PruneConfig) {
	if s.history == nil {
		return
	}
	cfg = cfg.withDefaults()

	slog.Info("history pruner started",
		"retention", cfg.Retention.String(),
		"interval", cfg.Interval.String(),
	)

	// Run immediately on startup
	s.PruneHistory(ctx, cfg.Retention)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.PruneHistory(ctx, cfg.Retention)
		}
	}
}

// PruneHistory deletes entries older than retention and returns how many
// were removed.
func (s *Service) PruneHistory(ctx context.Context, retention time.Duration) int64 {
	if s.history == nil {
		return 0
	}

	start := time.Now()
	cutoff := s.now().Add(-retention)

	deleted, err := s.history.DeleteBefore(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return 0
	}

	slog.Info("pruned analysis history",
		"entries_deleted", deleted,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return deleted
}
