package core

import (
	"context"
	"time"
)

// History status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Analysis sources.
const (
	SourceAPI          = "api"
	SourceMicroservice = "microservice"
	SourceDashboard    = "dashboard"
	SourceCLI          = "cli"
)

// HistoryEntry is the persisted summary of one analysis. The envelope itself
// is never stored.
type HistoryEntry struct {
	ID           string    `json:"id"`
	FileName     string    `json:"file_name"`
	Digest       string    `json:"digest"`
	SizeBytes    int64     `json:"size_bytes"`
	ModelSize    string    `json:"model_size"`
	TableCount   int       `json:"table_count"`
	FailedTables int       `json:"failed_tables"`
	Mode         string    `json:"mode"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryStore persists analysis summaries.
type HistoryStore interface {
	Record(ctx context.Context, entry HistoryEntry) error
	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]HistoryEntry, error)
	// DeleteBefore removes entries created before cutoff and returns how
	// many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
