// Package store persists analysis history.
//
// Two implementations of core.HistoryStore are provided: Memory, used when
// no database is configured, and Postgres, backed by a pgx pool.
package store

import (
	"github.com/JonMunkholm/pbixinspect/internal/core"
)

var (
	_ core.HistoryStore = (*Memory)(nil)
	_ core.HistoryStore = (*Postgres)(nil)
)

// DefaultMemoryCapacity bounds the in-memory history.
const DefaultMemoryCapacity = 1000

// normalizeLimit clamps a requested listing size.
func normalizeLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
