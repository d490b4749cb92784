// Package rules registers the best-practice rules with the core registry.
// Import this package to ensure all rules are registered.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// str returns row[key] as text, "" when absent or nil.
func str(row core.Row, key string) string {
	switch v := row[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// flag returns row[key] as a bool. Numeric 1 and "true" count as set.
func flag(row core.Row, key string) bool {
	switch v := row[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// qualify formats "Table.Object".
func qualify(table, name string) string {
	if table == "" {
		return name
	}
	return table + "." + name
}

// modelTables returns the user-facing table names of the envelope, sorted.
// Auto-generated date tables are skipped.
func modelTables(env *core.Envelope) []string {
	var names []string
	for name := range env.TableData {
		if isAutoDateTable(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// modelColumns returns the per-column statistics rows of user tables.
func modelColumns(env *core.Envelope) []core.Row {
	var cols []core.Row
	for _, col := range env.Tables {
		if !isAutoDateTable(str(col, "TableName")) {
			cols = append(cols, col)
		}
	}
	return cols
}

// columnsMatching flags every model column for which match holds.
func columnsMatching(failDetail, passDetail string, match func(col core.Row) bool) func(*core.Envelope) core.RuleResult {
	return func(env *core.Envelope) core.RuleResult {
		var flagged []string
		for _, col := range modelColumns(env) {
			if match(col) {
				flagged = append(flagged, qualify(str(col, "TableName"), str(col, "ColumnName")))
			}
		}
		return result(flagged, failDetail, passDetail)
	}
}

// measureName returns "Table.Measure".
func measureName(m core.Row) string {
	return qualify(str(m, "TableName"), str(m, "Name"))
}

func isAutoDateTable(name string) bool {
	return strings.HasPrefix(name, "LocalDateTable_") || strings.HasPrefix(name, "DateTableTemplate_")
}

// result builds a RuleResult from the flagged objects.
func result(affected []string, failDetail, passDetail string) core.RuleResult {
	if len(affected) > 0 {
		return core.RuleResult{
			Passed:          false,
			Details:         fmt.Sprintf(failDetail, len(affected)),
			AffectedObjects: affected,
		}
	}
	return core.RuleResult{Passed: true, Details: passDetail, AffectedObjects: []string{}}
}
