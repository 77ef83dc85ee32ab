package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lowcost_routes/internal/cache"
	"lowcost_routes/internal/database"
	"lowcost_routes/internal/models"
)

// ItineraryService combines direct and one-stop flights into priced itineraries
type ItineraryService struct {
	routes   *RouteService
	fares    *FareService
	loader   *cache.Loader
	logger   *slog.Logger
	fanOut   int
	currency string
}

// NewItineraryService creates a new itinerary service
func NewItineraryService(routes *RouteService, fares *FareService, loader *cache.Loader, logger *slog.Logger, fanOut int, currency string) *ItineraryService {
	if fanOut <= 0 {
		fanOut = 1
	}
	return &ItineraryService{
		routes:   routes,
		fares:    fares,
		loader:   loader,
		logger:   logger,
		fanOut:   fanOut,
		currency: currency,
	}
}

// Search runs FindBestRoutes through the result cache and stamps a search id.
// Concurrent identical searches share one computation.
func (is *ItineraryService) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	req = normalizeRequest(req)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	month := req.Month.Format("2006-01-02")
	key := database.GenerateSearchCacheKey(req.From, req.To, month, req.MaxLayoverDays, is.currency)

	itineraries, err := cache.GetOrLoad(ctx, is.loader, key, func(ctx context.Context) ([]models.Itinerary, error) {
		return is.FindBestRoutes(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search routes: %w", err)
	}

	return &models.SearchResponse{
		SearchID:    uuid.New().String(),
		From:        req.From,
		To:          req.To,
		Month:       req.Month.Format("2006-01"),
		Currency:    is.currency,
		Itineraries: itineraries,
		Count:       len(itineraries),
	}, nil
}

// FindBestRoutes returns every direct and one-stop itinerary for the request,
// sorted by total price. Ties keep enumeration order: direct fares first, then
// connectors in code order. An empty result is not an error.
func (is *ItineraryService) FindBestRoutes(ctx context.Context, req models.SearchRequest) ([]models.Itinerary, error) {
	req = normalizeRequest(req)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	is.logger.InfoContext(ctx, "searching routes", "from", req.From, "to", req.To, "month", req.Month.Format("2006-01"))

	itineraries := make([]models.Itinerary, 0)

	if is.routes.HasRoute(ctx, req.From, req.To) {
		direct, err := is.fares.GetFares(ctx, req.From, req.To, req.Month)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			is.logger.WarnContext(ctx, "direct fares unavailable", "from", req.From, "to", req.To, "error", err)
		}
		for _, leg := range direct {
			itineraries = append(itineraries, models.NewDirectItinerary(leg))
		}
		is.logger.InfoContext(ctx, "found direct flights", "count", len(direct))
	} else {
		is.logger.InfoContext(ctx, "no direct route", "from", req.From, "to", req.To)
	}

	connectors, err := is.routes.FindConnectors(ctx, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("failed to find connecting airports: %w", err)
	}

	connecting, err := is.connectingItineraries(ctx, req, connectors)
	if err != nil {
		return nil, err
	}
	itineraries = append(itineraries, connecting...)

	sortByPrice(itineraries)

	is.logger.InfoContext(ctx, "route search completed",
		"from", req.From,
		"to", req.To,
		"itineraries", len(itineraries),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return itineraries, nil
}

// connectingItineraries fetches both legs of every connector concurrently and
// keeps the pairs that fit the layover window
func (is *ItineraryService) connectingItineraries(ctx context.Context, req models.SearchRequest, connectors []string) ([]models.Itinerary, error) {
	perConnector := make([][]models.Itinerary, len(connectors))

	var g errgroup.Group
	g.SetLimit(is.fanOut)
	for i, via := range connectors {
		g.Go(func() error {
			perConnector[i] = is.viaConnector(ctx, req, via)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var itineraries []models.Itinerary
	for _, its := range perConnector {
		itineraries = append(itineraries, its...)
	}
	return itineraries, nil
}

func (is *ItineraryService) viaConnector(ctx context.Context, req models.SearchRequest, via string) []models.Itinerary {
	firstLegs, err := is.fares.GetFares(ctx, req.From, via, req.Month)
	if err != nil {
		is.logger.WarnContext(ctx, "skipping connector, first leg unavailable", "via", via, "error", err)
		return nil
	}
	if len(firstLegs) == 0 {
		return nil
	}

	secondLegs, err := is.fares.GetFares(ctx, via, req.To, req.Month)
	if err != nil {
		is.logger.WarnContext(ctx, "skipping connector, second leg unavailable", "via", via, "error", err)
		return nil
	}
	if len(secondLegs) == 0 {
		return nil
	}

	return pairLegs(firstLegs, secondLegs, req.MaxLayover())
}

// pairLegs returns every first x second combination whose layover lies in
// (0, maxLayover]
func pairLegs(firstLegs, secondLegs []models.Leg, maxLayover time.Duration) []models.Itinerary {
	var itineraries []models.Itinerary
	for _, f1 := range firstLegs {
		for _, f2 := range secondLegs {
			if f1.To != f2.From {
				continue
			}
			layover := f2.DepartureTime.Sub(f1.ArrivalTime)
			if layover <= 0 || layover > maxLayover {
				continue
			}
			itineraries = append(itineraries, models.NewConnectingItinerary(f1, f2))
		}
	}
	return itineraries
}

func sortByPrice(itineraries []models.Itinerary) {
	sort.SliceStable(itineraries, func(i, j int) bool {
		return itineraries[i].TotalPrice < itineraries[j].TotalPrice
	})
}

func normalizeRequest(req models.SearchRequest) models.SearchRequest {
	req.From = strings.ToUpper(strings.TrimSpace(req.From))
	req.To = strings.ToUpper(strings.TrimSpace(req.To))
	if !req.Month.IsZero() {
		req.Month = models.StartOfMonth(req.Month)
	}
	return req
}
