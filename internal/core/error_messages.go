package core

// # Error Codes Reference
//
// Errors shown to users carry a short code they can quote to support.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Remove unused visuals or data and export again
//	          Patterns: "file too large", "request body too large"
//
//	FILE004 - No file: No file was attached to the request
//	          Action: Please select a .pbix file to upload
//	          Matches: ErrNoFilePart, ErrNoSelectedFile
//
//	FILE006 - Invalid file type: Only .pbix archives are accepted
//	          Action: Save the report as .pbix and upload it again
//	          Matches: ErrInvalidFileType
//
// # Archive Errors (PBIX001-PBIX099)
//
//	PBIX001 - Archive unreadable: The file could not be opened as a Power BI archive
//	          Action: Check that the file is not corrupt and was saved by Power BI Desktop
//	          Matches: *ArchiveParseError
//
//	PBIX002 - Table unreadable: A table's data could not be extracted
//	          Action: Retry without strict mode to inspect the remaining tables
//	          Matches: *TableExtractionError
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many archives are being processed
//	         Action: Please wait a moment and try again
//	         Matches: ErrTooManyExtractions
//
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Analysis Errors (ANL001-ANL099)
//
//	ANL001 - Analysis not found: The analysis expired from the cache
//	         Action: Upload the file again
//	         Matches: ErrAnalysisNotFound
//
//	ANL002 - Table not found: The analysis has no table of that name
//	         Action: Pick a table from the analysis overview
//	         Matches: ErrTableNotFound
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the server logs for the technical
// error, correlated by request ID.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Remove unused visuals or data and export again",
		Code:    "FILE001",
	}
	msgNoFile = UserMessage{
		Message: "No file was attached to the request",
		Action:  "Please select a .pbix file to upload",
		Code:    "FILE004",
	}
	msgInvalidType = UserMessage{
		Message: "Only .pbix archives are accepted",
		Action:  "Save the report as .pbix and upload it again",
		Code:    "FILE006",
	}
	msgArchive = UserMessage{
		Message: "The file could not be opened as a Power BI archive",
		Action:  "Check that the file is not corrupt and was saved by Power BI Desktop",
		Code:    "PBIX001",
	}
	msgTable = UserMessage{
		Message: "A table's data could not be extracted",
		Action:  "Retry without strict mode to inspect the remaining tables",
		Code:    "PBIX002",
	}
	msgBusy = UserMessage{
		Message: "Too many archives are being processed",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgNotFound = UserMessage{
		Message: "Analysis not found",
		Action:  "Upload the file again",
		Code:    "ANL001",
	}
	msgTableNotFound = UserMessage{
		Message: "Table not found",
		Action:  "Pick a table from the analysis overview",
		Code:    "ANL002",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that arrive as plain strings (transport and
// context errors). Typed errors are matched first in MapError.
// The first matching pattern wins.
var errorPatterns = []errorPattern{
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "request body too large", msg: msgFileTooLarge},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed errors from this package are matched with errors.Is/As; anything
// else falls through to case-insensitive pattern matching and finally
// ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var archiveErr *ArchiveParseError
	var tableErr *TableExtractionError
	switch {
	case errors.Is(err, ErrInvalidFileType):
		return msgInvalidType
	case errors.Is(err, ErrNoFilePart), errors.Is(err, ErrNoSelectedFile):
		return msgNoFile
	case errors.As(err, &archiveErr):
		return msgArchive
	case errors.As(err, &tableErr):
		return msgTable
	case errors.Is(err, ErrTooManyExtractions):
		return msgBusy
	case errors.Is(err, ErrAnalysisNotFound):
		return msgNotFound
	case errors.Is(err, ErrTableNotFound):
		return msgTableNotFound
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
