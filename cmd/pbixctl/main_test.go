package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/pbixinspect/internal/core"
	"github.com/JonMunkholm/pbixinspect/internal/pbix"
)

const testSchema = `{
  "model": {
    "tables": [
      {
        "name": "Sales",
        "columns": [{"name": "Amount", "dataType": "double"}],
        "partitions": [{"name": "Sales", "source": {"type": "m", "expression": "let Source = 1 in Source"}}]
      }
    ]
  }
}`

// writeArchive writes a minimal archive into a temp dir and returns its path.
func writeArchive(t *testing.T, name string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for entry, data := range map[string][]byte{
		"DataModelSchema": []byte(testSchema),
		"DataModel":       bytes.Repeat([]byte{0}, 2048),
	} {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	svc, err := core.NewService(pbix.New(), nil, core.ServiceOptions{MaxConcurrent: 1})
	require.NoError(t, err)

	cmd := newRootCmd(svc)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

func TestInspect_JSON(t *testing.T) {
	path := writeArchive(t, "sales.pbix")

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "2.0KiB", body["model_size"])
	assert.Equal(t, float64(1), body["number_of_tables"])
	assert.NotContains(t, body, "findings")

	rows := body["table_data"].(map[string]any)["Sales"].([]any)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].(map[string]any)["error"], "column store")
}

func TestInspect_Rules(t *testing.T) {
	path := writeArchive(t, "sales.pbix")

	out, err := execute(t, "inspect", "--rules", "--pretty", path)
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"findings\": {")

	var body struct {
		Findings core.RuleReport `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, core.RuleCount(), body.Findings.TotalRules)
	assert.Equal(t, body.Findings.TotalRules, body.Findings.PassedRules+body.Findings.FailedRules)
}

func TestInspect_YAML(t *testing.T) {
	path := writeArchive(t, "sales.pbix")

	out, err := execute(t, "inspect", "--format", "yaml", path)
	require.NoError(t, err)
	assert.Contains(t, out, "model_size: 2.0KiB")
	assert.Contains(t, out, "number_of_tables: 1")
	assert.Contains(t, out, "table_data:")
}

func TestInspect_Strict(t *testing.T) {
	path := writeArchive(t, "sales.pbix")

	_, err := execute(t, "inspect", "--strict", path)
	require.Error(t, err)
	assert.True(t, core.IsFatalExtraction(err))
}

func TestInspect_OutputAndWorkbook(t *testing.T) {
	path := writeArchive(t, "sales.pbix")
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out.json")
	xlsxPath := filepath.Join(dir, "out.xlsx")

	out, err := execute(t, "inspect", "-o", jsonPath, "--xlsx", xlsxPath, path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Sales")
}

func TestInspect_Errors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
		want string
	}{
		{"bad format", func(t *testing.T) []string {
			return []string{"inspect", "--format", "xml", writeArchive(t, "a.pbix")}
		}, "invalid format"},
		{"missing file", func(t *testing.T) []string {
			return []string{"inspect", filepath.Join(t.TempDir(), "none.pbix")}
		}, "read archive"},
		{"wrong extension", func(t *testing.T) []string {
			return []string{"inspect", writeArchive(t, "a.zip")}
		}, "Invalid file type"},
		{"no args", func(t *testing.T) []string {
			return []string{"inspect"}
		}, "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args(t)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRulesCommand(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, core.RuleCount())
	assert.Contains(t, out, "avoid-many-to-many")
}
