// Package pbix opens Power BI Desktop archives.
//
// A .pbix file is a ZIP container. The model definition lives in the
// DataModelSchema entry as UTF-16LE JSON; table data lives in the
// compressed DataModel column store, which is not decoded here. Tables
// typed in through "Enter data" carry their rows inline in the Power Query
// expression and are decoded from there.
package pbix

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
	"golang.org/x/text/encoding/unicode"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// Archive entry names.
const (
	entrySchema    = "DataModelSchema"
	entryDataModel = "DataModel"
	entryVersion   = "Version"
)

// maxSchemaSize bounds the decompressed schema entry.
const maxSchemaSize = 256 << 20

var (
	// ErrNoSchema is returned for archives without a readable model schema,
	// e.g. reports connected live to a remote dataset.
	ErrNoSchema = errors.New("archive has no readable model schema")

	// ErrTableNotFound is returned by Table for unknown names.
	ErrTableNotFound = errors.New("table not found")

	// ErrColumnStore is returned for tables whose rows exist only in the
	// compressed column store.
	ErrColumnStore = errors.New("table data is stored in the compressed column store, which is not decoded")
)

// Extractor implements core.Extractor for .pbix archives.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Open reads the archive's model schema.
func (e *Extractor) Open(r io.ReaderAt, size int64) (core.ModelHandle, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	schemaFile, ok := entries[entrySchema]
	if !ok {
		return nil, ErrNoSchema
	}
	raw, err := readEntry(schemaFile, maxSchemaSize)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", entrySchema, err)
	}
	schema, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", entrySchema, err)
	}
	if !gjson.ValidBytes(schema) {
		return nil, fmt.Errorf("%s is not valid JSON", entrySchema)
	}

	m := newModel(schema)
	m.size = int64(schemaFile.UncompressedSize64)
	if dm, ok := entries[entryDataModel]; ok {
		m.size = int64(dm.UncompressedSize64)
	}
	if vf, ok := entries[entryVersion]; ok {
		if v, err := readEntry(vf, 1<<10); err == nil {
			if text, err := decodeText(v); err == nil {
				m.version = string(bytes.TrimSpace(text))
			}
		}
	}

	return m, nil
}

// readEntry reads at most limit bytes of f.
func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("entry exceeds %d bytes", limit)
	}
	return data, nil
}

// decodeText converts archive text entries to UTF-8. Power BI writes them
// as UTF-16LE, with or without a byte order mark; UTF-8 entries (with or
// without BOM) are accepted as well.
func decodeText(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	if bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		return raw[3:], nil
	}
	if !looksUTF16(raw) {
		return raw, nil
	}
	return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(raw)
}

// looksUTF16 reports a BOM or an ASCII first character followed by a zero
// byte.
func looksUTF16(raw []byte) bool {
	if len(raw) < 2 {
		return false
	}
	if (raw[0] == 0xFF && raw[1] == 0xFE) || (raw[0] == 0xFE && raw[1] == 0xFF) {
		return true
	}
	return raw[0] != 0 && raw[1] == 0
}
