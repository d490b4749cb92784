package web

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/pbixinspect/internal/core"
	"github.com/JonMunkholm/pbixinspect/internal/export"
	"github.com/JonMunkholm/pbixinspect/internal/logging"
	"github.com/JonMunkholm/pbixinspect/internal/web/templates"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleIndex renders the upload form and recent history.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, nil)
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, alert *core.UserMessage) {
	history, err := s.service.History(r.Context(), s.cfg.History.Limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("load history", "error", err)
		history = []core.HistoryEntry{}
	}

	s.render(w, r, status, templates.Index(templates.IndexPage{
		History:     history,
		MaxFileSize: core.FormatSize(float64(s.cfg.Upload.MaxFileSize)),
		Alert:       alert,
	}))
}

// handleAnalyze runs a dashboard upload and redirects to its overview.
// Failures re-render the upload form with the error.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	a, err := s.analyzeUpload(w, r, core.SourceDashboard, core.ModeIsolate)
	if err != nil {
		status := statusFor(err)
		msg := core.MapError(err)
		if core.IsFatalExtraction(err) {
			msg.Message = msg.Message + ": " + core.ErrorDetails(err)
		}
		logError(r, err, status, msg.Code)
		s.renderIndex(w, r, status, &msg)
		return
	}

	http.Redirect(w, r, string(templates.AnalysisURL(a.ID)), http.StatusSeeOther)
}

// handleAnalysis renders the overview of a cached analysis.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	s.render(w, r, http.StatusOK, templates.Analysis(a))
}

// handleTable renders a row preview and column profile of one table.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	name := pathParam(r, "name")
	table, ok := a.Table(name)
	if !ok {
		err := fmt.Errorf("%w: %s", core.ErrTableNotFound, name)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	data := templates.TablePage{Analysis: a, Table: table}
	if table.OK() {
		rows := table.Rows.Rows
		if n := s.cfg.Analysis.PreviewRows; n > 0 && len(rows) > n {
			rows = rows[:n]
		}
		data.Preview = core.NewDataset(table.Rows.Columns, rows...).Records()
		data.TotalRows = table.Rows.Len()
		data.Profile = core.ProfileTable(table.Rows)
	}

	s.render(w, r, http.StatusOK, templates.Table(data))
}

// handleExport downloads the analysis as an Excel workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	// Buffered so a failed export can still be reported as an error.
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, a.Envelope); err != nil {
		s.respondError(w, r, fmt.Errorf("export %s: %w", a.ID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", contentDisposition(workbookName(a.FileName)))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Error("write workbook", "analysis_id", a.ID, "error", err)
	}
}

// contentDisposition builds an attachment header. Non-ASCII names are
// encoded as RFC 2231 extended parameters.
func contentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

// workbookName derives the download name from the uploaded file name.
func workbookName(fileName string) string {
	base := strings.TrimSuffix(path.Base(fileName), core.ArchiveExtension)
	base = strings.Map(func(r rune) rune {
		if r < 0x20 || r == '"' || r == '\\' || r == '/' {
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." {
		base = "analysis"
	}
	return base + ".xlsx"
}

// pathParam returns a URL parameter, decoding it when the router matched on
// the escaped path (names containing "/" arrive as %2F).
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// render writes a full dashboard page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}
