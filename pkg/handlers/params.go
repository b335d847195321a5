package handlers

import (
	"net/http"
	"strconv"
)

// ParseIntQuery extracts and validates a required integer query parameter.
// Returns the value and true on success, or 0 and false after writing an
// error response.
func ParseIntQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_parameter", name+" is required")
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_parameter", name+" must be an integer")
		return 0, false
	}
	return value, true
}

// ParseStringQuery extracts a required string query parameter.
// Returns the value and true on success, or "" and false after writing an
// error response.
func ParseStringQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_parameter", name+" is required")
		return "", false
	}
	return value, true
}
