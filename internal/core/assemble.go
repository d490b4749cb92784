package core

import (
	"fmt"
	"io"
	"log/slog"
)

// Envelope is the response body produced for one archive. Every sequence
// field is non-nil so consumers always see [] instead of null.
type Envelope struct {
	Metadata       []Row            `json:"metadata" yaml:"metadata"`
	ModelSize      string           `json:"model_size" yaml:"model_size"`
	NumberOfTables int              `json:"number_of_tables" yaml:"number_of_tables"`
	Columns        []Row            `json:"columns" yaml:"columns"`
	Tables         []Row            `json:"tables" yaml:"tables"`
	Relationships  []Row            `json:"relationships" yaml:"relationships"`
	PowerQuery     []Row            `json:"power_query" yaml:"power_query"`
	Measures       []Row            `json:"measures" yaml:"measures"`
	TableData      map[string][]Row `json:"table_data" yaml:"table_data"`
}

// AssembleOptions controls envelope assembly.
type AssembleOptions struct {
	Mode Mode
}

// Assemble builds the envelope from an opened model handle.
//
// The only error it returns is a strict-mode *TableExtractionError; in
// isolation mode per-table failures are part of the envelope's table_data.
// The ordered per-table results are returned alongside for callers that
// need more than the JSON mapping.
func Assemble(h ModelHandle, opts AssembleOptions) (*Envelope, []TableResult, error) {
	results, err := ExtractTables(h, opts.Mode)
	if err != nil {
		return nil, nil, err
	}

	env := &Envelope{
		Metadata:       h.Metadata().Records(),
		ModelSize:      FormatSize(float64(h.Size())),
		NumberOfTables: len(h.Tables()),
		Columns:        MergeSchema(h.Schema(), h.CalculatedColumns()).Records(),
		Tables:         h.Statistics().Records(),
		Relationships:  h.Relationships().Records(),
		PowerQuery:     h.PowerQuery().Records(),
		Measures:       h.Measures().Records(),
		TableData:      TableData(results),
	}
	return env, results, nil
}

// OpenAndAssemble opens the archive with ex and assembles its envelope.
// A failure to open is reported as *ArchiveParseError. The handle is
// closed before returning.
func OpenAndAssemble(ex Extractor, r io.ReaderAt, size int64, opts AssembleOptions) (*Envelope, []TableResult, error) {
	h, err := openModel(ex, r, size)
	if err != nil {
		return nil, nil, &ArchiveParseError{Err: err}
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			slog.Warn("failed to close model handle", "error", cerr)
		}
	}()

	return Assemble(h, opts)
}

// openModel calls ex.Open, converting a collaborator panic into an error.
func openModel(ex Extractor, r io.ReaderAt, size int64) (h ModelHandle, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			h = nil
			err = fmt.Errorf("%v", rec)
		}
	}()
	h, err = ex.Open(r, size)
	if err == nil && h == nil {
		err = fmt.Errorf("extractor returned no model")
	}
	return h, err
}

// TableNames returns the keys of the envelope's table_data in the order of
// the given results.
func TableNames(results []TableResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	return names
}
