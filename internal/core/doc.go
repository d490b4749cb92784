// Package core turns an opened Power BI archive into the response envelope
// served by every front-end.
//
// The package is independent of any transport. HTTP handlers, the CLI, and
// tests all go through the same functions.
//
// # Pipeline
//
// An [Extractor] opens the uploaded bytes into a [ModelHandle]. The
// assembler then reads it:
//
//  1. [FormatSize] renders the model size ("1.5KiB")
//  2. [MergeSchema] aligns declared and calculated columns into one table
//  3. [ExtractTables] reads every table's rows
//  4. [Assemble] combines everything into an [Envelope]
//
// Table extraction runs in one of two modes. [ModeIsolate] (the default)
// records a failing table as a single error row and keeps going;
// [ModeStrict] aborts with a [*TableExtractionError].
//
// # Service
//
// [Service] wraps the pipeline with upload validation, a concurrency
// limiter, an LRU cache of recent analyses, best-practice rule evaluation,
// and an optional [HistoryStore].
//
// # Rules
//
// Best-practice rules are registered at init time using [RegisterRule].
// The definitions live in the rules subpackage, which binaries import for
// its side effects:
//
//	import _ "github.com/JonMunkholm/pbixinspect/internal/core/rules"
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: Upload errors (size, missing file, file type)
//   - PBIX001-PBIX002: Archive and table extraction errors
//   - UPL002-UPL005: Capacity, cancellation, and timeouts
//   - ANL001-ANL002: Unknown analysis or table
//   - RATE001: Rate limited
package core
