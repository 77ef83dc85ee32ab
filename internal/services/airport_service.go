package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"lowcost_routes/internal/cache"
	"lowcost_routes/internal/database"
	"lowcost_routes/internal/models"
)

// AirportService serves the directory of active airports
type AirportService struct {
	source Upstream
	loader *cache.Loader
	logger *slog.Logger
}

// NewAirportService creates a new airport service
func NewAirportService(source Upstream, loader *cache.Loader, logger *slog.Logger) *AirportService {
	return &AirportService{
		source: source,
		loader: loader,
		logger: logger,
	}
}

// ListAirports returns every active airport sorted by display name.
// Upstream failures surface as models.ErrUpstreamUnavailable; an empty
// directory is not an error.
func (as *AirportService) ListAirports(ctx context.Context) ([]models.Airport, error) {
	return cache.GetOrLoad(ctx, as.loader, database.GenerateAirportsCacheKey(), as.fetchAirports)
}

func (as *AirportService) fetchAirports(ctx context.Context) ([]models.Airport, error) {
	records, err := as.source.ActiveAirports(ctx)
	if err != nil {
		as.logger.ErrorContext(ctx, "failed to fetch airports", "error", err)
		return nil, err
	}

	airports := make([]models.Airport, 0, len(records))
	for _, r := range records {
		code := strings.ToUpper(strings.TrimSpace(r.IataCode))
		if code == "" || r.Name == "" {
			continue
		}
		airports = append(airports, models.Airport{
			Code:        code,
			Name:        r.Name,
			City:        r.City.Name,
			CountryCode: strings.ToUpper(r.Country.Code),
			CountryName: r.Country.Name,
		})
	}

	sort.SliceStable(airports, func(i, j int) bool {
		return airports[i].DisplayName() < airports[j].DisplayName()
	})

	as.logger.InfoContext(ctx, "fetched airports", "count", len(airports))
	return airports, nil
}
