package core

// dataset.go defines the tabular shapes exchanged with the extraction
// collaborator and the value normalization applied before anything leaves
// the core.
//
// A Dataset keeps an explicit column order next to its rows so that merged
// and rendered tables keep the collaborator's column order. Rows are plain
// maps; a missing key and a nil value both mean "null".

import (
	"encoding/base64"
	"math"
	"time"
	"unicode/utf8"
)

// Value is a single scalar cell: string, number, bool, or nil.
type Value = any

// Row maps a column name to its cell value.
type Row = map[string]Value

// Dataset is an ordered sequence of rows with an ordered column list.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// NewDataset creates a dataset with the given column order.
func NewDataset(columns []string, rows ...Row) *Dataset {
	return &Dataset{Columns: columns, Rows: rows}
}

// DatasetFromRecords builds a dataset from rows, deriving the column order
// from the first appearance of each key. Keys within a single row are
// visited in sorted order since map iteration is random.
func DatasetFromRecords(rows []Row) *Dataset {
	ds := &Dataset{Rows: rows}
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, col := range sortedKeys(row) {
			if !seen[col] {
				seen[col] = true
				ds.Columns = append(ds.Columns, col)
			}
		}
	}
	return ds
}

// Len returns the number of rows. A nil dataset has zero rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// IsEmpty reports whether the dataset has no rows.
func (d *Dataset) IsEmpty() bool {
	return d.Len() == 0
}

// HasColumn reports whether col is part of the dataset's column set.
func (d *Dataset) HasColumn(col string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Clone returns a copy whose rows can be modified without touching d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return &Dataset{}
	}
	out := &Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([]Row, len(d.Rows)),
	}
	for i, row := range d.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// Records renders the dataset as JSON-safe row records. Every record carries
// every column (nil where the source row had no value) and every value is
// normalized. The result is never nil.
func (d *Dataset) Records() []Row {
	if d == nil {
		return []Row{}
	}
	out := make([]Row, len(d.Rows))
	for i, row := range d.Rows {
		rec := make(Row, len(d.Columns))
		for _, col := range d.Columns {
			rec[col] = NormalizeValue(row[col])
		}
		// Keys outside the declared column list are kept rather than dropped.
		for k, v := range row {
			if _, ok := rec[k]; !ok {
				rec[k] = NormalizeValue(v)
			}
		}
		out[i] = rec
	}
	return out
}

// Cell returns the value of col in row i, or nil if either is absent.
func (d *Dataset) Cell(i int, col string) Value {
	if d == nil || i < 0 || i >= len(d.Rows) {
		return nil
	}
	return d.Rows[i][col]
}

// NormalizeValue converts a collaborator value into something encoding/json
// and the dashboard can always render.
//
//   - NaN and ±Inf become nil
//   - time.Time becomes an RFC 3339 string (zero time becomes nil)
//   - []byte becomes a string, base64 encoded when it is not valid UTF-8
//   - sized integer and float kinds widen to int64 / float64
func NormalizeValue(v Value) Value {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool, int64:
		return val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		return NormalizeValue(float64(val))
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint:
		if uint64(val) > math.MaxInt64 {
			return float64(val)
		}
		return int64(val)
	case uint64:
		if val > math.MaxInt64 {
			return float64(val)
		}
		return int64(val)
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val.Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return nil
		}
		return NormalizeValue(*val)
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		return base64.StdEncoding.EncodeToString(val)
	default:
		return val
	}
}
