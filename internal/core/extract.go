package core

import (
	"fmt"
	"strings"
)

// Mode selects how per-table failures are handled.
type Mode int

const (
	// ModeIsolate records a failing table as an error row and keeps going.
	ModeIsolate Mode = iota
	// ModeStrict aborts on the first failing table.
	ModeStrict
)

// String returns "isolate" or "strict".
func (m Mode) String() string {
	if m == ModeStrict {
		return "strict"
	}
	return "isolate"
}

// ParseMode converts "strict" (case-insensitive) to ModeStrict; anything
// else is ModeIsolate.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "strict") {
		return ModeStrict
	}
	return ModeIsolate
}

// TableResult is the outcome of reading one table: rows on success, an
// error otherwise. Exactly one of Rows or Err is meaningful.
type TableResult struct {
	Name string
	Rows *Dataset
	Err  error
}

// OK reports whether the table was read successfully.
func (r TableResult) OK() bool {
	return r.Err == nil
}

// Records renders the result for the response envelope. A failed table
// becomes a single row carrying the error message.
func (r TableResult) Records() []Row {
	if r.Err != nil {
		return []Row{{"error": r.Err.Error()}}
	}
	return r.Rows.Records()
}

// ExtractTables reads every table the handle reports.
//
// In ModeIsolate it never returns an error: a table that fails (or panics
// inside the collaborator) is stored as a failed TableResult and the
// remaining tables are still read. In ModeStrict the first failure is
// returned as a *TableExtractionError.
//
// Results follow the handle's table order.
func ExtractTables(h ModelHandle, mode Mode) ([]TableResult, error) {
	names := h.Tables()
	results := make([]TableResult, 0, len(names))

	for _, name := range names {
		rows, err := readTable(h, name)
		if err != nil {
			tableErr := &TableExtractionError{Table: name, Err: err}
			if mode == ModeStrict {
				return nil, tableErr
			}
			results = append(results, TableResult{Name: name, Err: tableErr})
			continue
		}
		if rows == nil {
			rows = &Dataset{}
		}
		results = append(results, TableResult{Name: name, Rows: rows})
	}

	return results, nil
}

// readTable fetches one table, turning a collaborator panic into an error.
func readTable(h ModelHandle, name string) (ds *Dataset, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ds = nil
			err = fmt.Errorf("%v", rec)
		}
	}()
	return h.Table(name)
}

// TableData converts results into the envelope's name -> rows mapping.
func TableData(results []TableResult) map[string][]Row {
	out := make(map[string][]Row, len(results))
	for _, r := range results {
		out[r.Name] = r.Records()
	}
	return out
}

// FailedTables returns the names of tables that could not be read.
func FailedTables(results []TableResult) []string {
	var failed []string
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, r.Name)
		}
	}
	return failed
}
