package pbix

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// utf16le encodes s the way Power BI writes archive text entries.
func utf16le(t *testing.T, s string) []byte {
	t.Helper()
	b, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

// buildArchive writes a ZIP with the given entries.
func buildArchive(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// enterDataExpression builds the M expression Power BI generates for a
// typed-in table.
func enterDataExpression(t *testing.T, columns string, rowsJSON string) string {
	t.Helper()
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write([]byte(rowsJSON))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	return fmt.Sprintf(`let
    Source = Table.FromRows(Json.Document(Binary.Decompress(Binary.FromText("%s", BinaryEncoding.Base64), Compression.Deflate)), let _t = ((type nullable text) meta [Serialized.Text = true]) in type table [%s]),
    #"Changed Type" = Table.TransformColumnTypes(Source,{{"Region", type text}})
in
    #"Changed Type"`, base64.StdEncoding.EncodeToString(buf.Bytes()), columns)
}

func sampleSchema(t *testing.T) string {
	regionExpr := enterDataExpression(t, `Region = _t, #"Sales ""Target""" = _t`, `[["North","100"],["South",null],["East"]]`)
	quoted := fmt.Sprintf("%q", regionExpr)

	return `{
  "name": "SemanticModel",
  "compatibilityLevel": 1550,
  "createdTimestamp": "2024-01-01T00:00:00Z",
  "model": {
    "culture": "en-US",
    "defaultPowerBIDataSourceVersion": "powerBI_V3",
    "tables": [
      {
        "name": "Sales",
        "columns": [
          {"name": "Amount", "dataType": "double", "summarizeBy": "sum"},
          {"name": "Qty", "dataType": "int64", "type": "data", "isHidden": true, "isAvailableInMdx": false, "description": "Units sold"},
          {"name": "Double", "dataType": "double", "type": "calculated", "expression": ["[Amount]", " * 2"]},
          {"name": "RowNumber-2662979B", "dataType": "int64", "type": "rowNumber", "isKey": true}
        ],
        "partitions": [
          {"name": "Sales", "source": {"type": "m", "expression": ["let", "    Source = Sql.Database(\"srv\", \"db\")", "in", "    Source"]}}
        ],
        "measures": [
          {"name": "Total", "expression": "SUM(Sales[Amount])", "displayFolder": "KPIs", "description": "Total sales", "formatString": "#,0.00"},
          {"name": "Ratio", "expression": "SUM(Sales[Amount]) / SUM(Sales[Qty])"}
        ]
      },
      {
        "name": "Region",
        "columns": [
          {"name": "Region", "dataType": "string"},
          {"name": "Sales \"Target\"", "dataType": "string"}
        ],
        "partitions": [
          {"name": "Region", "source": {"type": "m", "expression": ` + quoted + `}}
        ]
      },
      {
        "name": "Calendar",
        "columns": [{"name": "Date", "dataType": "dateTime", "type": "calculatedTableColumn"}],
        "partitions": [{"name": "Calendar", "source": {"type": "calculated", "expression": "CALENDARAUTO()"}}]
      }
    ],
    "relationships": [
      {"name": "r1", "fromTable": "Sales", "fromColumn": "Region", "toTable": "Region", "toColumn": "Region"},
      {"name": "r2", "fromTable": "Sales", "fromColumn": "Date", "toTable": "Calendar", "toColumn": "Date",
       "isActive": false, "crossFilteringBehavior": "bothDirections", "toCardinality": "many", "relyOnReferentialIntegrity": true}
    ]
  }
}`
}

func openSample(t *testing.T) core.ModelHandle {
	t.Helper()
	archive := buildArchive(t, map[string][]byte{
		"DataModelSchema": utf16le(t, sampleSchema(t)),
		"DataModel":       bytes.Repeat([]byte{0x01}, 2048),
		"Version":         utf16le(t, "1.28"),
	})

	h, err := New().Open(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestOpen_NotAZip(t *testing.T) {
	data := []byte("this is not an archive")
	_, err := New().Open(bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open archive")
}

func TestOpen_NoSchema(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{"Report/Layout": []byte("{}")})
	_, err := New().Open(bytes.NewReader(archive), int64(len(archive)))
	assert.ErrorIs(t, err, ErrNoSchema)
}

func TestOpen_InvalidSchemaJSON(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{"DataModelSchema": utf16le(t, "{not json")})
	_, err := New().Open(bytes.NewReader(archive), int64(len(archive)))
	assert.Error(t, err)
}

func TestOpen_UTF8Schema(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"DataModelSchema": []byte(`{"model":{"tables":[{"name":"Only"}]}}`),
	})
	h, err := New().Open(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Only"}, h.Tables())
}

func TestModel_Basics(t *testing.T) {
	h := openSample(t)

	assert.Equal(t, []string{"Sales", "Region", "Calendar"}, h.Tables())
	assert.Equal(t, int64(2048), h.Size())

	meta := h.Metadata()
	assert.Equal(t, core.Row{"Name": "Version", "Value": "1.28"}, meta.Rows[0])
	assert.Contains(t, meta.Rows, core.Row{"Name": "CompatibilityLevel", "Value": "1550"})
	assert.Contains(t, meta.Rows, core.Row{"Name": "Culture", "Value": "en-US"})
}

func TestModel_Columns(t *testing.T) {
	h := openSample(t)

	schema := h.Schema()
	assert.Equal(t, []string{"TableName", "ColumnName", "PandasDataType"}, schema.Columns)
	require.Len(t, schema.Rows, 5)
	assert.Equal(t, core.Row{"TableName": "Sales", "ColumnName": "Amount", "PandasDataType": "float64"}, schema.Rows[0])
	assert.Equal(t, "int64", schema.Rows[1]["PandasDataType"])
	assert.Equal(t, "datetime64[ns]", schema.Rows[4]["PandasDataType"])

	calc := h.CalculatedColumns()
	require.Len(t, calc.Rows, 1)
	assert.Equal(t, "[Amount]\n * 2", calc.Rows[0]["Expression"])

	stats := h.Statistics()
	require.Len(t, stats.Rows, 6)
	assert.Equal(t, "sum", stats.Rows[0]["SummarizeBy"])
	assert.Equal(t, true, stats.Rows[1]["IsHidden"])
	assert.Equal(t, true, stats.Rows[0]["IsAvailableInMDX"])
	assert.Equal(t, false, stats.Rows[1]["IsAvailableInMDX"])
	assert.Nil(t, stats.Rows[0]["Description"])
	assert.Equal(t, "Units sold", stats.Rows[1]["Description"])
}

func TestModel_MeasuresAndPowerQuery(t *testing.T) {
	h := openSample(t)

	measures := h.Measures()
	require.Len(t, measures.Rows, 2)
	assert.Equal(t, "KPIs", measures.Rows[0]["DisplayFolder"])
	assert.Equal(t, "Total sales", measures.Rows[0]["Description"])
	assert.Nil(t, measures.Rows[1]["Description"])
	assert.Equal(t, "#,0.00", measures.Rows[0]["FormatString"])
	assert.Nil(t, measures.Rows[1]["FormatString"])

	pq := h.PowerQuery()
	require.Len(t, pq.Rows, 2)
	assert.Equal(t, "Sales", pq.Rows[0]["TableName"])
	assert.Contains(t, pq.Rows[0]["Expression"], "Sql.Database")
}

func TestModel_Relationships(t *testing.T) {
	h := openSample(t)

	rels := h.Relationships()
	require.Len(t, rels.Rows, 2)

	assert.Equal(t, int64(1), rels.Rows[0]["IsActive"])
	assert.Equal(t, "M:1", rels.Rows[0]["Cardinality"])
	assert.Equal(t, "Single", rels.Rows[0]["CrossFilteringBehavior"])
	assert.Equal(t, false, rels.Rows[0]["RelyOnReferentialIntegrity"])

	assert.Equal(t, int64(0), rels.Rows[1]["IsActive"])
	assert.Equal(t, "M:M", rels.Rows[1]["Cardinality"])
	assert.Equal(t, "Both", rels.Rows[1]["CrossFilteringBehavior"])
	assert.Equal(t, true, rels.Rows[1]["RelyOnReferentialIntegrity"])
}

func TestModel_EnterDataTable(t *testing.T) {
	h := openSample(t)

	ds, err := h.Table("Region")
	require.NoError(t, err)

	assert.Equal(t, []string{"Region", `Sales "Target"`}, ds.Columns)
	require.Len(t, ds.Rows, 3)
	assert.Equal(t, core.Row{"Region": "North", `Sales "Target"`: "100"}, ds.Rows[0])
	assert.Nil(t, ds.Rows[1][`Sales "Target"`])
	assert.Nil(t, ds.Rows[2][`Sales "Target"`])
}

func TestModel_ColumnStoreTables(t *testing.T) {
	h := openSample(t)

	_, err := h.Table("Sales")
	assert.ErrorIs(t, err, ErrColumnStore)

	_, err = h.Table("Calendar")
	assert.ErrorIs(t, err, ErrColumnStore)

	_, err = h.Table("Nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestModel_ClosedHandle(t *testing.T) {
	h := openSample(t)
	require.NoError(t, h.Close())

	_, err := h.Table("Region")
	assert.Error(t, err)
}

func TestAssembleFromArchive(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"DataModelSchema": utf16le(t, sampleSchema(t)),
		"DataModel":       bytes.Repeat([]byte{0x01}, 1536),
	})

	env, results, err := core.OpenAndAssemble(New(), bytes.NewReader(archive), int64(len(archive)), core.AssembleOptions{})
	require.NoError(t, err)

	assert.Equal(t, "1.5KiB", env.ModelSize)
	assert.Equal(t, 3, env.NumberOfTables)
	assert.Len(t, env.Columns, 6)
	assert.Len(t, env.TableData["Region"], 3)
	assert.Equal(t, []string{"Sales", "Calendar"}, core.FailedTables(results))
	assert.Equal(t,
		"Could not parse table 'Sales': table data is stored in the compressed column store, which is not decoded",
		env.TableData["Sales"][0]["error"])

	_, _, err = core.OpenAndAssemble(New(), bytes.NewReader(archive), int64(len(archive)), core.AssembleOptions{Mode: core.ModeStrict})
	var tableErr *core.TableExtractionError
	assert.ErrorAs(t, err, &tableErr)
}

func TestParseColumnList(t *testing.T) {
	assert.Equal(t, []string{"A", "B c", `Say "hi"`, "x,y"},
		parseColumnList(`A = _t, #"B c" = _t, #"Say ""hi""" = _t, #"x,y" = _t`))
	assert.Empty(t, parseColumnList(""))
}

func TestDecodeText(t *testing.T) {
	out, err := decodeText(utf16le(t, `{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(out))

	out, err = decodeText([]byte("\xEF\xBB\xBF{}"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))

	out, err = decodeText([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}
