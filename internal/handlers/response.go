package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lowcost_routes/internal/models"
)

// ErrorResponse is the body of every non-2xx JSON answer
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code}, logger)
}

// writeServiceError maps a service error to its HTTP status
func writeServiceError(w http.ResponseWriter, err error, logger *slog.Logger) {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), logger)
	case errors.Is(err, models.ErrUnparseableDate):
		WriteError(w, http.StatusBadGateway, "unparseable_date", "Fares source returned an unreadable date", logger)
	case errors.Is(err, models.ErrUpstreamUnavailable):
		WriteError(w, http.StatusBadGateway, "upstream_unavailable", "Fares source is unavailable", logger)
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "timeout", "Search took too long", logger)
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error", logger)
	}
}
