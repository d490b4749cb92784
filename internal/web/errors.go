package web

// errors.go provides unified error response handling for the web layer.
//
// All errors are:
//   - Logged with full technical details and the request ID (server-side)
//   - Returned to clients with a support code from core.MapError
//   - Rendered as JSON for API routes and as a dashboard page otherwise
//
// Upload endpoints follow a fixed JSON contract: the "error" field holds
// "No file part", "No selected file", "Invalid file type", or "Failed to
// process PBIX due to server issue" (with "details") for fatal extraction
// failures.

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/pbixinspect/internal/core"
	"github.com/JonMunkholm/pbixinspect/internal/logging"
	"github.com/JonMunkholm/pbixinspect/internal/web/templates"
)

// msgServerIssue is the error field of a fatal extraction response.
const msgServerIssue = "Failed to process PBIX due to server issue"

var (
	errFormTooLarge = errors.New("file too large or invalid form")
	errRateLimited  = errors.New("rate limit exceeded")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps an analysis error to its HTTP status.
func statusFor(err error) int {
	switch {
	case core.IsInvalidUpload(err), errors.Is(err, errFormTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyExtractions):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrAnalysisNotFound), errors.Is(err, core.ErrTableNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// uploadErrorBody builds the JSON body of a failed upload.
func uploadErrorBody(err error) ErrorResponse {
	msg := core.MapError(err)
	resp := ErrorResponse{Code: msg.Code}

	var invalid *core.InvalidUploadError
	switch {
	case errors.As(err, &invalid):
		resp.Error = invalid.Reason
	case errors.Is(err, errFormTooLarge):
		resp.Error = errFormTooLarge.Error()
	case core.IsFatalExtraction(err):
		resp.Error = msgServerIssue
		resp.Details = core.ErrorDetails(err)
	case errors.Is(err, core.ErrTooManyExtractions):
		resp.Error = msg.Message
		resp.Action = msg.Action
	default:
		resp.Error = msgServerIssue
		resp.Details = err.Error()
	}
	return resp
}

// respondUploadError logs err and writes the upload JSON error contract.
func (s *Server) respondUploadError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := uploadErrorBody(err)
	logError(r, err, status, body.Code)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, body)
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns JSON for API clients
// or a dashboard error page for browsers.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	logError(r, err, statusCode, userMsg.Code)

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode)
		return
	}
	respondErrorHTML(w, r, userMsg, statusCode)
}

// logError logs client mistakes at Warn and everything else at Error.
func logError(r *http.Request, err error, status int, code string) {
	logger := logging.FromContext(r.Context())
	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	logger.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", code,
	)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML renders the dashboard error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		slog.Error("render error page", "error", err)
	}
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
