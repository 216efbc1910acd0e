package web

// handlers_common.go contains shared helpers used across handlers: JSON
// encoding and the query-parameter parsers for pagination, filters, and
// ordering.

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crmcore/internal/store"
)

// writeJSON encodes v as JSON with the given status. Encoding errors are
// logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// pathUUID parses the named chi URL parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// parseIntParam parses an integer query parameter with a default value.
// Missing, malformed, and non-positive values all fall back to the default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parsePage builds the pagination window from page / page_size query
// parameters. OrderBy is filled separately where the entity supports it.
func parsePage(r *http.Request) store.PageRequest {
	return store.PageRequest{
		Page:     parseIntParam(r, "page", 1),
		PageSize: parseIntParam(r, "page_size", 0),
	}
}

// parseDecimalParam parses an optional decimal query parameter. A missing
// parameter yields (nil, true); a malformed one yields (nil, false).
func parseDecimalParam(r *http.Request, name string) (*decimal.Decimal, bool) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		return nil, false
	}
	return &d, true
}

// parseIntPtrParam parses an optional integer query parameter. A missing
// parameter yields (nil, true); a malformed one yields (nil, false).
func parseIntPtrParam(r *http.Request, name string) (*int, bool) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return nil, true
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return nil, false
	}
	return &i, true
}
