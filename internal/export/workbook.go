// Package export writes analysis envelopes as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

const (
	maxSheetName = 31
	maxCellText  = 32767
)

// WriteWorkbook writes env as an XLSX workbook to w.
//
// The model sections come first (Metadata, Columns, Tables, Relationships,
// PowerQuery, Measures), then one sheet per table in name order. A table
// that failed to extract gets a sheet holding its error row.
func WriteWorkbook(w io.Writer, env *core.Envelope) error {
	f := excelize.NewFile()
	defer f.Close()

	names := newSheetNamer()
	for i, s := range core.Sections(env) {
		sheet := names.name(s.Name)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("rename first sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		if err := writeRows(f, sheet, s.Rows, s.Columns); err != nil {
			return err
		}
	}

	tables := make([]string, 0, len(env.TableData))
	for name := range env.TableData {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	for _, table := range tables {
		sheet := names.name(table)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		rows := env.TableData[table]
		if err := writeRows(f, sheet, rows, core.ColumnOrder(rows)); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeRows writes a header row followed by one row per record.
func writeRows(f *excelize.File, sheet string, rows []core.Row, columns []string) error {
	if len(columns) == 0 {
		return nil
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze %s header: %w", sheet, err)
	}

	for r, row := range rows {
		values := make([]any, len(columns))
		for i, c := range columns {
			values[i] = cellValue(row[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, r+1, err)
		}
	}
	return nil
}

func cellValue(v core.Value) any {
	v = core.NormalizeValue(v)
	if s, ok := v.(string); ok && len(s) > maxCellText {
		return s[:maxCellText]
	}
	return v
}

// sheetNamer produces unique, valid sheet names. Excel compares sheet names
// case-insensitively.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]bool)}
}

var sheetReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

func (n *sheetNamer) name(raw string) string {
	base := strings.Trim(sheetReplacer.Replace(raw), "' ")
	if base == "" {
		base = "Sheet"
	}
	base = truncateRunes(base, maxSheetName)

	candidate := base
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
