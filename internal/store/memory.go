package store

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// Memory keeps history in a bounded in-process slice. The oldest entries are
// dropped once capacity is reached.
type Memory struct {
	mu       sync.RWMutex
	entries  []core.HistoryEntry // oldest first
	capacity int
}

// NewMemory creates a Memory store holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

// Record appends an entry.
func (m *Memory) Record(_ context.Context, entry core.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append([]core.HistoryEntry(nil), m.entries[over:]...)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (m *Memory) List(_ context.Context, limit int) ([]core.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = normalizeLimit(limit, len(m.entries))
	out := make([]core.HistoryEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// DeleteBefore removes entries created before cutoff.
func (m *Memory) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	var deleted int64
	for _, e := range m.entries {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return deleted, nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
