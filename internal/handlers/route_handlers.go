package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lowcost_routes/internal/export"
	"lowcost_routes/internal/models"
	"lowcost_routes/internal/services"
)

const defaultMaxLayoverDays = 3

// RouteHandlers handles airport listing and route search requests
type RouteHandlers struct {
	airports      *services.AirportService
	itineraries   *services.ItineraryService
	searchTimeout time.Duration
	log           *slog.Logger
}

// NewRouteHandlers creates new route handlers
func NewRouteHandlers(airports *services.AirportService, itineraries *services.ItineraryService, searchTimeout time.Duration, log *slog.Logger) *RouteHandlers {
	if searchTimeout <= 0 {
		searchTimeout = 60 * time.Second
	}
	return &RouteHandlers{
		airports:      airports,
		itineraries:   itineraries,
		searchTimeout: searchTimeout,
		log:           log,
	}
}

// ListAirports handles GET /api/airports
func (h *RouteHandlers) ListAirports(w http.ResponseWriter, r *http.Request) {
	airports, err := h.airports.ListAirports(r.Context())
	if err != nil {
		h.log.Error("failed to list airports", "error", err)
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, airports, h.log)
}

// SearchRoutes handles GET /api/routes/search
func (h *RouteHandlers) SearchRoutes(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.search(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, resp, h.log)
	h.log.Info("route search completed", "search_id", resp.SearchID, "count", resp.Count)
}

// ExportRoutes handles GET /api/routes/export.pdf
func (h *RouteHandlers) ExportRoutes(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.search(w, r)
	if !ok {
		return
	}

	body, err := export.ItinerariesPDF(resp)
	if err != nil {
		h.log.Error("failed to export routes", "search_id", resp.SearchID, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to render PDF", h.log)
		return
	}

	filename := fmt.Sprintf("flights_%s_%s_%s.pdf", resp.From, resp.To, resp.Month)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.log.Error("failed to write PDF", "error", err)
	}
}

// search parses the query, runs the search and writes the error response on
// failure
func (h *RouteHandlers) search(w http.ResponseWriter, r *http.Request) (*models.SearchResponse, bool) {
	req, limit, err := parseSearchQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.log)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.searchTimeout)
	defer cancel()

	resp, err := h.itineraries.Search(ctx, req)
	if err != nil {
		h.log.Error("route search failed", "from", req.From, "to", req.To, "error", err)
		writeServiceError(w, err, h.log)
		return nil, false
	}

	if limit > 0 && len(resp.Itineraries) > limit {
		resp.Itineraries = resp.Itineraries[:limit]
		resp.Count = limit
	}
	return resp, true
}

func parseSearchQuery(r *http.Request) (models.SearchRequest, int, error) {
	q := r.URL.Query()

	from, to, monthStr := q.Get("from"), q.Get("to"), q.Get("month")
	if from == "" || to == "" || monthStr == "" {
		return models.SearchRequest{}, 0, fmt.Errorf("missing required parameters: from, to, month")
	}

	month, err := models.ParseTravelMonth(monthStr)
	if err != nil {
		return models.SearchRequest{}, 0, err
	}

	maxLayover := defaultMaxLayoverDays
	if s := q.Get("max_layover_days"); s != "" {
		maxLayover, err = strconv.Atoi(s)
		if err != nil || maxLayover <= 0 {
			return models.SearchRequest{}, 0, fmt.Errorf("invalid max_layover_days parameter")
		}
	}

	limit := 0
	if s := q.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit <= 0 {
			return models.SearchRequest{}, 0, fmt.Errorf("invalid limit parameter")
		}
	}

	req := models.SearchRequest{From: from, To: to, Month: month, MaxLayoverDays: maxLayover}
	return req, limit, nil
}

// Register mounts the airport and route endpoints on r
func (h *RouteHandlers) Register(r chi.Router) {
	r.Get("/airports", h.ListAirports)
	r.Route("/routes", func(r chi.Router) {
		r.Get("/search", h.SearchRoutes)
		r.Get("/export.pdf", h.ExportRoutes)
	})
}
