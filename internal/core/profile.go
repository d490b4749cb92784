package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// ColumnProfile summarizes one column of a table.
type ColumnProfile struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Nulls    int    `json:"nulls"`
	Distinct int    `json:"distinct"`

	// Numeric is set when every non-null value parses as a number; the
	// statistics below are only meaningful then.
	Numeric bool    `json:"numeric"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
	Mean    float64 `json:"mean,omitempty"`
	Median  float64 `json:"median,omitempty"`
	StdDev  float64 `json:"std_dev,omitempty"`
}

// ProfileTable computes a profile for every column of ds, in column order.
func ProfileTable(ds *Dataset) []ColumnProfile {
	if ds == nil {
		return []ColumnProfile{}
	}

	profiles := make([]ColumnProfile, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		profiles = append(profiles, profileColumn(ds, col))
	}
	return profiles
}

func profileColumn(ds *Dataset, col string) ColumnProfile {
	p := ColumnProfile{Name: col, Count: len(ds.Rows)}

	distinct := make(map[string]struct{})
	var numbers stats.Float64Data
	numeric := true

	for _, row := range ds.Rows {
		v := NormalizeValue(row[col])
		if isBlank(v) {
			p.Nulls++
			continue
		}
		distinct[fmt.Sprintf("%T:%v", v, v)] = struct{}{}

		if !numeric {
			continue
		}
		if f, ok := toFloat(v); ok {
			numbers = append(numbers, f)
		} else {
			numeric = false
		}
	}

	p.Distinct = len(distinct)
	if !numeric || len(numbers) == 0 {
		return p
	}

	p.Numeric = true
	p.Min, _ = numbers.Min()
	p.Max, _ = numbers.Max()
	p.Mean, _ = numbers.Mean()
	p.Median, _ = numbers.Median()
	p.StdDev, _ = numbers.StandardDeviation()
	return p
}

// toFloat interprets numbers and numeric strings. Booleans are not numeric.
func toFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// isBlank treats nil and whitespace-only strings as missing.
func isBlank(v Value) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
