package core

import "sort"

// Section is one model listing of an envelope with its display column order.
type Section struct {
	Name    string
	Title   string
	Rows    []Row
	Columns []string
}

// Sections returns the model listings of env in display order: Metadata,
// Columns, Tables, Relationships, PowerQuery, Measures.
func Sections(env *Envelope) []Section {
	if env == nil {
		return []Section{}
	}
	return []Section{
		{"Metadata", "Metadata", env.Metadata, ColumnOrder(env.Metadata, "Name", "Value")},
		{"Columns", "Calculated Columns", env.Columns, ColumnOrder(env.Columns, "TableName", "ColumnName", "PandasDataType", "Expression")},
		{"Tables", "Tables", env.Tables, ColumnOrder(env.Tables, "TableName", "ColumnName", "DataType", "IsHidden", "IsKey", "SummarizeBy", "IsAvailableInMDX", "Description")},
		{"Relationships", "Relationships", env.Relationships, ColumnOrder(env.Relationships, "FromTableName", "FromColumnName", "ToTableName", "ToColumnName", "IsActive", "Cardinality", "CrossFilteringBehavior")},
		{"PowerQuery", "Power Query", env.PowerQuery, ColumnOrder(env.PowerQuery, "TableName", "Expression")},
		{"Measures", "Measures", env.Measures, ColumnOrder(env.Measures, "TableName", "Name", "Expression", "DisplayFolder", "Description", "FormatString")},
	}
}

// ColumnOrder lists the preferred columns that occur in rows, then the
// remaining keys sorted.
func ColumnOrder(rows []Row, preferred ...string) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			present[k] = true
		}
	}

	columns := make([]string, 0, len(present))
	for _, c := range preferred {
		if present[c] {
			columns = append(columns, c)
			delete(present, c)
		}
	}
	rest := make([]string, 0, len(present))
	for c := range present {
		rest = append(rest, c)
	}
	sort.Strings(rest)
	return append(columns, rest...)
}
