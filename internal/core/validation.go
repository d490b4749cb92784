package core

// validation.go checks an upload before any bytes reach the extractor.
//
// Checks run in the same order the front-ends report them:
//  1. A file part must be present
//  2. The file name must not be empty
//  3. The file name must carry the archive extension
//
// The extension check is case-sensitive: "report.PBIX" is rejected.

import "strings"

// ArchiveExtension is the file extension accepted for uploads.
const ArchiveExtension = ".pbix"

// ValidateUpload returns an *InvalidUploadError describing the first
// problem with the upload, or nil. hasFile reports whether the request
// carried a file part at all.
func ValidateUpload(hasFile bool, filename string) error {
	if !hasFile {
		return ErrNoFilePart
	}
	if filename == "" {
		return ErrNoSelectedFile
	}
	if !strings.HasSuffix(filename, ArchiveExtension) {
		return ErrInvalidFileType
	}
	return nil
}
