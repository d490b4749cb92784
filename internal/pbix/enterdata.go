package pbix

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// maxInlineTable bounds the inflated size of an Enter data table.
const maxInlineTable = 64 << 20

var (
	// Binary.FromText("<base64>", BinaryEncoding.Base64)
	inlineDataRe = regexp.MustCompile(`Binary\.FromText\(\s*"([A-Za-z0-9+/=]+)"\s*,\s*BinaryEncoding\.Base64\s*\)`)
	// type table [Name = _t, #"Unit Price" = _t]
	inlineTypeRe = regexp.MustCompile(`type\s+table\s*\[([^\]]*)\]`)
)

var errClosed = errors.New("model handle is closed")

// Table returns the rows of an Enter data table.
func (m *model) Table(name string) (*core.Dataset, error) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, errClosed
	}

	t, ok := m.findTable(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	var expr string
	t.Get("partitions").ForEach(func(_, p gjson.Result) bool {
		src := p.Get("source")
		if src.Get("type").String() == "m" {
			expr = expression(src.Get("expression"))
			return false
		}
		return true
	})

	if expr == "" || !strings.Contains(expr, "Compression.Deflate") {
		return nil, ErrColumnStore
	}
	return decodeInlineTable(expr)
}

// decodeInlineTable decodes the rows embedded in an Enter data expression:
// base64, raw deflate, then a JSON array of row arrays. Column names come
// from the "type table [...]" clause.
func decodeInlineTable(expr string) (*core.Dataset, error) {
	m := inlineDataRe.FindStringSubmatch(expr)
	if m == nil {
		return nil, ErrColumnStore
	}

	compressed, err := base64.StdEncoding.DecodeString(m[1])
	if err != nil {
		return nil, fmt.Errorf("decode inline data: %w", err)
	}

	raw, err := io.ReadAll(io.LimitReader(flate.NewReader(bytes.NewReader(compressed)), maxInlineTable+1))
	if err != nil {
		return nil, fmt.Errorf("inflate inline data: %w", err)
	}
	if len(raw) > maxInlineTable {
		return nil, fmt.Errorf("inline data exceeds %d bytes", maxInlineTable)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("inline data is not valid JSON")
	}

	var columns []string
	if tm := inlineTypeRe.FindStringSubmatch(expr); tm != nil {
		columns = parseColumnList(tm[1])
	}

	ds := core.NewDataset(columns)
	gjson.ParseBytes(raw).ForEach(func(_, row gjson.Result) bool {
		var cells []gjson.Result
		row.ForEach(func(_, cell gjson.Result) bool {
			cells = append(cells, cell)
			return true
		})
		for len(ds.Columns) < len(cells) {
			ds.Columns = append(ds.Columns, fmt.Sprintf("Column%d", len(ds.Columns)+1))
		}

		rec := make(core.Row, len(ds.Columns))
		for i, col := range ds.Columns {
			if i < len(cells) {
				rec[col] = cellValue(cells[i])
			} else {
				rec[col] = nil
			}
		}
		ds.Rows = append(ds.Rows, rec)
		return true
	})

	return ds, nil
}

// parseColumnList splits `Name = _t, #"Unit Price" = _t` into column names.
func parseColumnList(list string) []string {
	var names []string
	for _, part := range splitTopLevel(list) {
		name := part
		if i := strings.LastIndex(part, "="); i >= 0 {
			name = part[:i]
		}
		name = unquoteIdentifier(strings.TrimSpace(name))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// splitTopLevel splits on commas outside quoted identifiers.
func splitTopLevel(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ',' && !inQuote:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, cur.String())
	}
	return parts
}

// unquoteIdentifier turns #"Unit Price" into Unit Price. Doubled quotes
// inside the identifier stand for one quote.
func unquoteIdentifier(s string) string {
	if strings.HasPrefix(s, `#"`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		return strings.ReplaceAll(s[2:len(s)-1], `""`, `"`)
	}
	return s
}

func cellValue(v gjson.Result) core.Value {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True, gjson.False:
		return v.Bool()
	case gjson.Number:
		return v.Float()
	default:
		return v.String()
	}
}
