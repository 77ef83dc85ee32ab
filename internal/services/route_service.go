package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lowcost_routes/internal/cache"
	"lowcost_routes/internal/database"
)

// RouteService answers reachability questions over the direct-route graph
type RouteService struct {
	source   Upstream
	airports *AirportService
	loader   *cache.Loader
	logger   *slog.Logger
	fanOut   int
}

// NewRouteService creates a new route service. fanOut bounds the number of
// concurrent destination lookups during the graph sweep.
func NewRouteService(source Upstream, airports *AirportService, loader *cache.Loader, logger *slog.Logger, fanOut int) *RouteService {
	if fanOut <= 0 {
		fanOut = 1
	}
	return &RouteService{
		source:   source,
		airports: airports,
		loader:   loader,
		logger:   logger,
		fanOut:   fanOut,
	}
}

// ListDestinations returns the set of airports served directly from airportCode
func (rs *RouteService) ListDestinations(ctx context.Context, airportCode string) (map[string]struct{}, error) {
	codes, err := rs.destinations(ctx, airportCode)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set, nil
}

// HasRoute reports whether there is a direct route from one airport to another.
// A failed lookup counts as no route.
func (rs *RouteService) HasRoute(ctx context.Context, from, to string) bool {
	codes, err := rs.destinations(ctx, from)
	if err != nil {
		rs.logger.WarnContext(ctx, "destination lookup failed, treating as no route", "airport", from, "error", err)
		return false
	}

	to = strings.ToUpper(to)
	for _, c := range codes {
		if c == to {
			return true
		}
	}
	return false
}

// FindConnectors returns, in ascending order, the airports V with a direct route
// from -> V and V -> to. The endpoints themselves are never connectors.
func (rs *RouteService) FindConnectors(ctx context.Context, from, to string) ([]string, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)

	firstHops, err := rs.destinations(ctx, from)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rs.logger.WarnContext(ctx, "destination lookup failed, no connectors", "airport", from, "error", err)
		return []string{}, nil
	}

	index, err := rs.inboundIndex(ctx)
	if err != nil {
		return nil, err
	}

	inbound := make(map[string]struct{}, len(index[to]))
	for _, origin := range index[to] {
		inbound[origin] = struct{}{}
	}

	connectors := make([]string, 0)
	for _, via := range firstHops {
		if via == from || via == to {
			continue
		}
		if _, ok := inbound[via]; ok {
			connectors = append(connectors, via)
		}
	}
	sort.Strings(connectors)

	rs.logger.InfoContext(ctx, "found potential connecting airports", "from", from, "to", to, "count", len(connectors))
	return connectors, nil
}

// destinations returns the sorted, de-duplicated direct destinations of an airport
func (rs *RouteService) destinations(ctx context.Context, airportCode string) ([]string, error) {
	airportCode = strings.ToUpper(airportCode)
	key := database.GenerateDestinationsCacheKey(airportCode)

	return cache.GetOrLoad(ctx, rs.loader, key, func(ctx context.Context) ([]string, error) {
		codes, err := rs.source.Routes(ctx, airportCode)
		if err != nil {
			return nil, err
		}

		seen := make(map[string]struct{}, len(codes))
		unique := make([]string, 0, len(codes))
		for _, c := range codes {
			c = strings.ToUpper(c)
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			unique = append(unique, c)
		}
		sort.Strings(unique)
		return unique, nil
	})
}

// inboundIndex maps every airport to the airports with a direct route into it.
// It is built by one sweep over the whole directory and cached for the TTL window.
func (rs *RouteService) inboundIndex(ctx context.Context) (map[string][]string, error) {
	return cache.GetOrLoad(ctx, rs.loader, database.GenerateInboundIndexCacheKey(), rs.buildInboundIndex)
}

func (rs *RouteService) buildInboundIndex(ctx context.Context) (map[string][]string, error) {
	start := time.Now()

	airports, err := rs.airports.ListAirports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list airports for route sweep: %w", err)
	}

	outbound := make([][]string, len(airports))
	failed := make([]bool, len(airports))

	var g errgroup.Group
	g.SetLimit(rs.fanOut)
	for i, airport := range airports {
		g.Go(func() error {
			codes, err := rs.destinations(ctx, airport.Code)
			if err != nil {
				failed[i] = true
				return nil
			}
			outbound[i] = codes
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index := make(map[string][]string)
	failures := 0
	for i, airport := range airports {
		if failed[i] {
			failures++
			continue
		}
		for _, dest := range outbound[i] {
			index[dest] = append(index[dest], airport.Code)
		}
	}

	rs.logger.InfoContext(ctx, "built inbound route index",
		"airports", len(airports),
		"failed_lookups", failures,
		"destinations", len(index),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return index, nil
}
