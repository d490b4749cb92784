package core

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"
)

// fakeHandle is an in-memory ModelHandle.
type fakeHandle struct {
	schema     *Dataset
	calculated *Dataset
	metadata   *Dataset
	statistics *Dataset
	relations  *Dataset
	powerQuery *Dataset
	measures   *Dataset
	size       int64

	names  []string
	tables map[string]*Dataset
	errs   map[string]error
	panics map[string]any

	closed bool
}

func (h *fakeHandle) Schema() *Dataset            { return h.schema }
func (h *fakeHandle) CalculatedColumns() *Dataset { return h.calculated }
func (h *fakeHandle) Tables() []string            { return h.names }
func (h *fakeHandle) Metadata() *Dataset          { return h.metadata }
func (h *fakeHandle) Statistics() *Dataset        { return h.statistics }
func (h *fakeHandle) Relationships() *Dataset     { return h.relations }
func (h *fakeHandle) PowerQuery() *Dataset        { return h.powerQuery }
func (h *fakeHandle) Measures() *Dataset          { return h.measures }
func (h *fakeHandle) Size() int64                 { return h.size }

func (h *fakeHandle) Table(name string) (*Dataset, error) {
	if p, ok := h.panics[name]; ok {
		panic(p)
	}
	if err, ok := h.errs[name]; ok {
		return nil, err
	}
	return h.tables[name], nil
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

// salesHandle returns a small two-table model.
func salesHandle() *fakeHandle {
	return &fakeHandle{
		schema: NewDataset([]string{"TableName", "ColumnName", "PandasDataType"},
			Row{"TableName": "Sales", "ColumnName": "Amount", "PandasDataType": "float64"},
			Row{"TableName": "Region", "ColumnName": "Name", "PandasDataType": "object"},
		),
		calculated: NewDataset([]string{"TableName", "ColumnName", "Expression"},
			Row{"TableName": "Sales", "ColumnName": "Double", "Expression": "[Amount] * 2"},
		),
		metadata: NewDataset([]string{"Name", "Value"},
			Row{"Name": "Version", "Value": "1.28"},
		),
		size:  1536,
		names: []string{"Sales", "Region"},
		tables: map[string]*Dataset{
			"Sales":  NewDataset([]string{"Amount"}, Row{"Amount": 10.5}, Row{"Amount": 4.5}),
			"Region": NewDataset([]string{"Name"}, Row{"Name": "North"}),
		},
	}
}

func extractorFor(h ModelHandle) Extractor {
	return ExtractorFunc(func(io.ReaderAt, int64) (ModelHandle, error) {
		return h, nil
	})
}

// memoryHistory is a HistoryStore for service tests.
type memoryHistory struct {
	mu      sync.Mutex
	entries []HistoryEntry
	failing bool
}

func (m *memoryHistory) Record(_ context.Context, e HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("store unavailable")
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryHistory) List(_ context.Context, limit int) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]HistoryEntry(nil), m.entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryHistory) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
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
