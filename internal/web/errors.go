package web

// errors.go provides unified error response handling for the web layer.
//
// Every handler error flows through respondError: the technical error is
// logged with the request id for correlation, mapped to a user-facing
// message via core.MapError, and written as a JSON envelope with a
// kind-derived HTTP status. Internal detail never reaches a client.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"crmcore/internal/core"
	"crmcore/internal/domain"
)

// ErrorResponse is the JSON structure for API error responses. Code is the
// machine-readable support code; Message and Action are for humans.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and writes the user-facing envelope
// with a status derived from the error kind.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusForError(err)
	userMsg := core.MapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusForError maps typed domain errors and known infrastructure errors to
// HTTP status codes. Anything unrecognized is a 500.
func statusForError(err error) int {
	if errors.Is(err, core.ErrTooManyImports) {
		return http.StatusServiceUnavailable
	}
	switch domain.KindOf(err) {
	case domain.KindMissingField, domain.KindFormat, domain.KindRange, domain.KindEmptyInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondBadRequest short-circuits decode and parameter failures with a 400
// and a plain message, bypassing the pattern table.
func respondBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "REQ400",
	})
}
