package core

import "io"

// ModelHandle is one opened archive as exposed by the extraction
// collaborator. A handle belongs to a single request: it is opened from the
// uploaded bytes, read while the response is assembled, and closed.
//
// Dataset accessors may return nil when the collaborator has nothing to
// report; the assembler substitutes empty sequences.
type ModelHandle interface {
	// Schema returns the declared (data) columns of every table.
	Schema() *Dataset
	// CalculatedColumns returns columns defined by a formula expression.
	CalculatedColumns() *Dataset
	// Tables returns the names of all tables in the model.
	Tables() []string
	// Table returns the row data of one table.
	Table(name string) (*Dataset, error)
	Metadata() *Dataset
	Statistics() *Dataset
	Relationships() *Dataset
	PowerQuery() *Dataset
	Measures() *Dataset
	// Size returns the total model size in bytes.
	Size() int64
	Close() error
}

// Extractor opens archives into model handles.
type Extractor interface {
	Open(r io.ReaderAt, size int64) (ModelHandle, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(r io.ReaderAt, size int64) (ModelHandle, error)

// Open calls f(r, size).
func (f ExtractorFunc) Open(r io.ReaderAt, size int64) (ModelHandle, error) {
	return f(r, size)
}
