package web

import (
	"bytes"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDashboard_Index(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `action="/analyze"`)
	assert.Contains(t, rec.Body.String(), "1.0MiB")
}

func TestDashboard_AnalyzeFlow(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, multipartRequest(t, "/analyze", "sales.pbix", []byte("PK"), true, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	require.Regexp(t, `^/analysis/[0-9a-f-]{36}$`, location)

	rec = serve(s, httptest.NewRequest(http.MethodGet, location, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "sales.pbix")
	assert.Contains(t, page, "1.5KiB")
	assert.Contains(t, page, "<h2>Metadata</h2>")
	assert.NotContains(t, page, "<h2>Relationships</h2>")

	// Preview is capped at one row; the profile covers both.
	rec = serve(s, httptest.NewRequest(http.MethodGet, location+"/table/Sales", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Showing 1 of 2 rows")
	assert.Contains(t, rec.Body.String(), "Column profile")

	rec = serve(s, httptest.NewRequest(http.MethodGet, location+"/table/Broken", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "column store")

	rec = serve(s, httptest.NewRequest(http.MethodGet, location+"/table/Nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ANL002")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), `href="`+location+`"`)
}

func TestDashboard_AnalyzeRejected(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, multipartRequest(t, "/analyze", "sales.xlsx", []byte("PK"), true, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only .pbix archives are accepted")
	assert.Contains(t, rec.Body.String(), "FILE006")
}

func TestDashboard_AnalyzeArchiveFailure(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, multipartRequest(t, "/analyze", "sales.pbix", notZip, true, nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "PBIX001")
	assert.Contains(t, rec.Body.String(), "not a valid zip file")
	// The failed upload shows up in history without a link.
	assert.Contains(t, rec.Body.String(), `class="fail"`)
}

func TestDashboard_UnknownAnalysis(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/analysis/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "ANL001")
}

func TestDashboard_Export(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, multipartRequest(t, "/analyze", "sales.pbix", []byte("PK"), true, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")

	rec = serve(s, httptest.NewRequest(http.MethodGet, location+"/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, "sales.xlsx", params["filename"])

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Sales")
	assert.Contains(t, f.GetSheetList(), "Broken")
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"sales.xlsx", "sales.xlsx"},
		{"Q1 report.xlsx", "Q1 report.xlsx"},
		{"résumé.xlsx", "résumé.xlsx"},
		{"売上.xlsx", "売上.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := contentDisposition(tt.name)
			assert.NotContains(t, header, `\u`)

			disposition, params, err := mime.ParseMediaType(header)
			require.NoError(t, err)
			assert.Equal(t, "attachment", disposition)
			assert.Equal(t, tt.want, params["filename"])
		})
	}
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	header http.Header
	status int
}

func (w *brokenWriter) Header() http.Header { return w.header }

func (w *brokenWriter) WriteHeader(status int) { w.status = status }

func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestDashboard_ExportWriteFailureIsLogged(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, multipartRequest(t, "/analyze", "sales.pbix", []byte("PK"), true, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	w := &brokenWriter{header: http.Header{}}
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, location+"/export.xlsx", nil))

	assert.Equal(t, http.StatusOK, w.status)
	assert.Contains(t, logs.String(), `"msg":"write workbook"`)
	assert.Contains(t, logs.String(), "connection reset by peer")
}

func TestWorkbookName(t *testing.T) {
	assert.Equal(t, "sales.xlsx", workbookName("sales.pbix"))
	assert.Equal(t, "q_1.xlsx", workbookName(`q"1.pbix`))
	assert.Equal(t, "analysis.xlsx", workbookName(".pbix"))
}
