package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"fiscal-engine/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps engine errors to HTTP statuses. Validation and
// state errors are the caller's fault; everything else is a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeError(w, r, err.Error(), "VALIDATION", http.StatusBadRequest)
	case errors.Is(err, core.ErrImmutable):
		writeError(w, r, err.Error(), "IMMUTABLE", http.StatusConflict)
	case errors.Is(err, core.ErrAlreadyCancelled):
		writeError(w, r, err.Error(), "ALREADY_CANCELLED", http.StatusConflict)
	case errors.Is(err, core.ErrNotCertified):
		writeError(w, r, err.Error(), "NOT_CERTIFIED", http.StatusConflict)
	case errors.Is(err, core.ErrSeriesUnavailable):
		writeError(w, r, err.Error(), "SERIES_UNAVAILABLE", http.StatusUnprocessableEntity)
	default:
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
