package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lowcost_routes/internal/cache"
	"lowcost_routes/internal/database"
	"lowcost_routes/internal/models"
	"lowcost_routes/internal/upstream"
)

// fareTimeLayouts are tried in order. The fractional-second element is optional
// when parsing, so the first two also cover whole-second timestamps.
var fareTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// FareService fetches the cheapest fare of every day in a month for a city pair
type FareService struct {
	source Upstream
	routes *RouteService
	loader *cache.Loader
	logger *slog.Logger
}

// NewFareService creates a new fare service
func NewFareService(source Upstream, routes *RouteService, loader *cache.Loader, logger *slog.Logger) *FareService {
	return &FareService{
		source: source,
		routes: routes,
		loader: loader,
		logger: logger,
	}
}

// GetFares returns one priced leg per available day of month, in upstream order.
// It returns an empty slice without calling the fares endpoint when there is no
// direct route between the airports.
func (fs *FareService) GetFares(ctx context.Context, from, to string, month time.Time) ([]models.Leg, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	month = models.StartOfMonth(month)

	if !fs.routes.HasRoute(ctx, from, to) {
		fs.logger.DebugContext(ctx, "no direct route, skipping fares", "from", from, "to", to)
		return []models.Leg{}, nil
	}

	monthKey := month.Format("2006-01-02")
	key := database.GenerateFaresCacheKey(from, to, monthKey, fs.source.Currency())

	return cache.GetOrLoad(ctx, fs.loader, key, func(ctx context.Context) ([]models.Leg, error) {
		records, err := fs.source.CheapestPerDay(ctx, from, to, month)
		if err != nil {
			return nil, err
		}

		legs, err := legsFromFares(from, to, records)
		if err != nil {
			fs.logger.ErrorContext(ctx, "failed to parse fares", "from", from, "to", to, "error", err)
			return nil, err
		}
		return legs, nil
	})
}

// legsFromFares drops unavailable and unpriced fares and parses the rest
func legsFromFares(from, to string, records []upstream.FareRecord) ([]models.Leg, error) {
	legs := make([]models.Leg, 0, len(records))
	for _, r := range records {
		if r.Unavailable || r.Price == nil || r.Price.Value == nil {
			continue
		}

		departure, err := parseFareTime(r.DepartureDate)
		if err != nil {
			return nil, fmt.Errorf("departure of %s-%s on %s: %w", from, to, r.Day, err)
		}
		arrival, err := parseFareTime(r.ArrivalDate)
		if err != nil {
			return nil, fmt.Errorf("arrival of %s-%s on %s: %w", from, to, r.Day, err)
		}

		legs = append(legs, models.Leg{
			From:          from,
			To:            to,
			DepartureTime: departure,
			ArrivalTime:   arrival,
			Price:         *r.Price.Value,
		})
	}
	return legs, nil
}

// parseFareTime parses a fare timestamp as UTC
func parseFareTime(value string) (time.Time, error) {
	for _, layout := range fareTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", models.ErrUnparseableDate, value)
}
