package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

// readUpload parses the multipart body and returns the uploaded archive.
// The checks mirror core.ValidateUpload so the three rejection messages are
// reported before any bytes are read.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return "", nil, core.ErrNoFilePart
		}
		return "", nil, errFormTooLarge
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part named "file" with an empty filename is parsed as a plain
		// form value: the user submitted the form without choosing a file.
		_, named := r.MultipartForm.Value["file"]
		return "", nil, core.ValidateUpload(named, "")
	}
	defer file.Close()

	if err := core.ValidateUpload(true, header.Filename); err != nil {
		return "", nil, err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

// analyzeUpload reads the upload and runs it through the service.
func (s *Server) analyzeUpload(w http.ResponseWriter, r *http.Request, source string, fallback core.Mode) (*core.Analysis, error) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		return nil, err
	}

	ctx := WithRequestMetadata(r.Context(), r)
	return s.service.Analyze(ctx, core.AnalyzeRequest{
		FileName: name,
		Data:     data,
		Mode:     requestMode(r, fallback),
		Source:   source,
	})
}

// requestMode reads "mode" from the query or form, falling back when absent.
func requestMode(r *http.Request, fallback core.Mode) core.Mode {
	v := r.FormValue("mode")
	if v == "" {
		return fallback
	}
	return core.ParseMode(v)
}

// defaultMode is the mode of /upload when the request does not choose one.
func (s *Server) defaultMode() core.Mode {
	if s.cfg.Upload.StrictTables {
		return core.ModeStrict
	}
	return core.ModeIsolate
}

// handleUpload is the plain API front-end: POST a multipart "file", get the
// envelope back.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.upload(w, r, core.SourceAPI, s.defaultMode())
}

// handleServiceUpload is the microservice variant. It always isolates table
// failures unless the request asks for strict mode.
func (s *Server) handleServiceUpload(w http.ResponseWriter, r *http.Request) {
	s.upload(w, r, core.SourceMicroservice, core.ModeIsolate)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, source string, fallback core.Mode) {
	a, err := s.analyzeUpload(w, r, source, fallback)
	if err != nil {
		s.respondUploadError(w, r, err)
		return
	}

	w.Header().Set("X-Analysis-Id", a.ID)
	writeJSON(w, http.StatusOK, a.Envelope)
}
