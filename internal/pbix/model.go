package pbix

import (
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// model is an opened archive. It implements core.ModelHandle.
type model struct {
	schema  gjson.Result
	size    int64
	version string

	tables []gjson.Result // model.tables in schema order

	mu     sync.Mutex
	closed bool
}

func newModel(schema []byte) *model {
	m := &model{schema: gjson.ParseBytes(schema)}
	m.schema.Get("model.tables").ForEach(func(_, t gjson.Result) bool {
		m.tables = append(m.tables, t)
		return true
	})
	return m
}

// Size returns the uncompressed size of the model in bytes.
func (m *model) Size() int64 {
	return m.size
}

// Close releases the handle. The archive itself belongs to the caller.
func (m *model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Tables returns table names in schema order.
func (m *model) Tables() []string {
	names := make([]string, 0, len(m.tables))
	for _, t := range m.tables {
		names = append(names, t.Get("name").String())
	}
	return names
}

// Schema returns the data columns of every table.
func (m *model) Schema() *core.Dataset {
	ds := core.NewDataset([]string{"TableName", "ColumnName", "PandasDataType"})
	m.eachColumn(func(table string, col gjson.Result) {
		if columnType(col) != "data" {
			return
		}
		ds.Rows = append(ds.Rows, core.Row{
			"TableName":      table,
			"ColumnName":     col.Get("name").String(),
			"PandasDataType": pandasType(col.Get("dataType").String()),
		})
	})
	return ds
}

// CalculatedColumns returns columns defined by a DAX expression.
func (m *model) CalculatedColumns() *core.Dataset {
	ds := core.NewDataset([]string{"TableName", "ColumnName", "Expression"})
	m.eachColumn(func(table string, col gjson.Result) {
		if columnType(col) != "calculated" {
			return
		}
		ds.Rows = append(ds.Rows, core.Row{
			"TableName":  table,
			"ColumnName": col.Get("name").String(),
			"Expression": expression(col.Get("expression")),
		})
	})
	return ds
}

// Statistics returns per-column properties.
func (m *model) Statistics() *core.Dataset {
	ds := core.NewDataset([]string{
		"TableName", "ColumnName", "DataType", "IsHidden", "IsKey", "SummarizeBy",
		"IsAvailableInMDX", "Description",
	})
	m.eachColumn(func(table string, col gjson.Result) {
		ds.Rows = append(ds.Rows, core.Row{
			"TableName":        table,
			"ColumnName":       col.Get("name").String(),
			"DataType":         defaultString(col.Get("dataType").String(), "unknown"),
			"IsHidden":         col.Get("isHidden").Bool(),
			"IsKey":            col.Get("isKey").Bool(),
			"SummarizeBy":      defaultString(col.Get("summarizeBy").String(), "default"),
			"IsAvailableInMDX": availableInMDX(col),
			"Description":      nullable(col.Get("description")),
		})
	})
	return ds
}

// Measures returns every measure with its DAX expression.
func (m *model) Measures() *core.Dataset {
	ds := core.NewDataset([]string{"TableName", "Name", "Expression", "DisplayFolder", "Description", "FormatString"})
	for _, t := range m.tables {
		table := t.Get("name").String()
		t.Get("measures").ForEach(func(_, ms gjson.Result) bool {
			ds.Rows = append(ds.Rows, core.Row{
				"TableName":     table,
				"Name":          ms.Get("name").String(),
				"Expression":    expression(ms.Get("expression")),
				"DisplayFolder": nullable(ms.Get("displayFolder")),
				"Description":   nullable(ms.Get("description")),
				"FormatString":  nullable(ms.Get("formatString")),
			})
			return true
		})
	}
	return ds
}

// Relationships returns the model's relationships.
func (m *model) Relationships() *core.Dataset {
	ds := core.NewDataset([]string{
		"FromTableName", "FromColumnName", "ToTableName", "ToColumnName",
		"IsActive", "Cardinality", "CrossFilteringBehavior", "RelyOnReferentialIntegrity",
	})
	m.schema.Get("model.relationships").ForEach(func(_, r gjson.Result) bool {
		active := int64(1)
		if v := r.Get("isActive"); v.Exists() && !v.Bool() {
			active = 0
		}
		ds.Rows = append(ds.Rows, core.Row{
			"FromTableName":              r.Get("fromTable").String(),
			"FromColumnName":             r.Get("fromColumn").String(),
			"ToTableName":                r.Get("toTable").String(),
			"ToColumnName":               r.Get("toColumn").String(),
			"IsActive":                   active,
			"Cardinality":                cardinality(r),
			"CrossFilteringBehavior":     crossFilter(r.Get("crossFilteringBehavior").String()),
			"RelyOnReferentialIntegrity": r.Get("relyOnReferentialIntegrity").Bool(),
		})
		return true
	})
	return ds
}

// PowerQuery returns the M expression of every table partition.
func (m *model) PowerQuery() *core.Dataset {
	ds := core.NewDataset([]string{"TableName", "Expression"})
	for _, t := range m.tables {
		table := t.Get("name").String()
		t.Get("partitions").ForEach(func(_, p gjson.Result) bool {
			src := p.Get("source")
			if src.Get("type").String() != "m" {
				return true
			}
			ds.Rows = append(ds.Rows, core.Row{
				"TableName":  table,
				"Expression": expression(src.Get("expression")),
			})
			return true
		})
	}
	return ds
}

// Metadata returns model-level properties as Name/Value pairs.
func (m *model) Metadata() *core.Dataset {
	ds := core.NewDataset([]string{"Name", "Value"})
	add := func(name, value string) {
		if value != "" {
			ds.Rows = append(ds.Rows, core.Row{"Name": name, "Value": value})
		}
	}

	add("Version", m.version)
	add("ModelName", m.schema.Get("name").String())
	add("CompatibilityLevel", m.schema.Get("compatibilityLevel").String())
	add("Culture", m.schema.Get("model.culture").String())
	add("DefaultPowerBIDataSourceVersion", m.schema.Get("model.defaultPowerBIDataSourceVersion").String())
	add("SourceQueryCulture", m.schema.Get("model.sourceQueryCulture").String())
	add("CreatedTimestamp", m.schema.Get("createdTimestamp").String())
	add("LastUpdate", m.schema.Get("lastUpdate").String())
	add("LastSchemaUpdate", m.schema.Get("lastSchemaUpdate").String())
	return ds
}

// eachColumn visits every user column. Internal RowNumber columns are
// skipped.
func (m *model) eachColumn(fn func(table string, col gjson.Result)) {
	for _, t := range m.tables {
		table := t.Get("name").String()
		t.Get("columns").ForEach(func(_, col gjson.Result) bool {
			if columnType(col) != "rowNumber" {
				fn(table, col)
			}
			return true
		})
	}
}

func (m *model) findTable(name string) (gjson.Result, bool) {
	for _, t := range m.tables {
		if t.Get("name").String() == name {
			return t, true
		}
	}
	return gjson.Result{}, false
}

// availableInMDX reports the column's isAvailableInMdx flag. The schema
// only writes it when false.
func availableInMDX(col gjson.Result) bool {
	v := col.Get("isAvailableInMdx")
	return !v.Exists() || v.Bool()
}

// columnType returns "data" for columns without an explicit type.
func columnType(col gjson.Result) string {
	switch t := col.Get("type").String(); t {
	case "", "data", "calculatedTableColumn":
		return "data"
	default:
		return t
	}
}

var pandasTypes = map[string]string{
	"int64":    "int64",
	"double":   "float64",
	"decimal":  "decimal",
	"string":   "object",
	"boolean":  "bool",
	"dateTime": "datetime64[ns]",
	"binary":   "object",
}

func pandasType(dataType string) string {
	if t, ok := pandasTypes[dataType]; ok {
		return t
	}
	return "object"
}

// expression flattens a string or a list of lines.
func expression(v gjson.Result) string {
	if !v.IsArray() {
		return v.String()
	}
	var lines []string
	v.ForEach(func(_, line gjson.Result) bool {
		lines = append(lines, line.String())
		return true
	})
	return strings.Join(lines, "\n")
}

// nullable returns nil for absent values.
func nullable(v gjson.Result) core.Value {
	if !v.Exists() {
		return nil
	}
	return expression(v)
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// cardinality renders from/to cardinality as "M:1", "1:1", "M:M" or "1:M".
// The schema omits the defaults (many on the from side, one on the to side).
func cardinality(r gjson.Result) string {
	side := func(v gjson.Result, def string) string {
		switch v.String() {
		case "many":
			return "M"
		case "one":
			return "1"
		default:
			return def
		}
	}
	return side(r.Get("fromCardinality"), "M") + ":" + side(r.Get("toCardinality"), "1")
}

// crossFilter renders the filter direction as Single, Both or Automatic.
func crossFilter(v string) string {
	switch v {
	case "", "oneDirection":
		return "Single"
	case "bothDirections":
		return "Both"
	case "automatic":
		return "Automatic"
	default:
		return v
	}
}
