package core

import (
	"errors"
	"fmt"
)

// InvalidUploadError is a client mistake in the upload itself: no file part,
// an empty file name, or a name without the archive extension.
type InvalidUploadError struct {
	Reason string
}

func (e *InvalidUploadError) Error() string {
	return e.Reason
}

// Upload rejections. Messages are part of the HTTP contract.
var (
	ErrNoFilePart      = &InvalidUploadError{Reason: "No file part"}
	ErrNoSelectedFile  = &InvalidUploadError{Reason: "No selected file"}
	ErrInvalidFileType = &InvalidUploadError{Reason: "Invalid file type"}
)

// TableExtractionError is the failure to read one table's rows.
type TableExtractionError struct {
	Table string
	Err   error
}

func (e *TableExtractionError) Error() string {
	msg := "<nil>"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("Could not parse table '%s': %s", e.Table, msg)
}

func (e *TableExtractionError) Unwrap() error {
	return e.Err
}

// ArchiveParseError means the collaborator could not open the archive at all.
// It is fatal for the request.
type ArchiveParseError struct {
	Err error
}

func (e *ArchiveParseError) Error() string {
	return "archive parse failed: " + e.Details()
}

// Details returns the collaborator's underlying message.
func (e *ArchiveParseError) Details() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

func (e *ArchiveParseError) Unwrap() error {
	return e.Err
}

// ErrAnalysisNotFound is returned for analysis IDs that are not (or no
// longer) cached.
var ErrAnalysisNotFound = errors.New("analysis not found")

// ErrTableNotFound is returned when an analysis has no table of the
// requested name.
var ErrTableNotFound = errors.New("table not found in analysis")

// IsInvalidUpload reports whether err is an upload rejection.
func IsInvalidUpload(err error) bool {
	var target *InvalidUploadError
	return errors.As(err, &target)
}

// IsFatalExtraction reports whether err should be surfaced as a server-side
// processing failure (archive parse or strict-mode table failure).
func IsFatalExtraction(err error) bool {
	var archiveErr *ArchiveParseError
	var tableErr *TableExtractionError
	return errors.As(err, &archiveErr) || errors.As(err, &tableErr)
}

// ErrorDetails returns the diagnostic message attached to a fatal
// extraction error.
func ErrorDetails(err error) string {
	var archiveErr *ArchiveParseError
	if errors.As(err, &archiveErr) {
		return archiveErr.Details()
	}
	var tableErr *TableExtractionError
	if errors.As(err, &tableErr) {
		return tableErr.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
