package services

import (
	"context"
	"time"

	"lowcost_routes/internal/upstream"
)

// Upstream is the part of the fares/routes API the services depend on.
// *upstream.Client implements it.
type Upstream interface {
	ActiveAirports(ctx context.Context) ([]upstream.AirportRecord, error)
	Routes(ctx context.Context, airportCode string) ([]string, error)
	CheapestPerDay(ctx context.Context, from, to string, month time.Time) ([]upstream.FareRecord, error)
	Currency() string
}

var _ Upstream = (*upstream.Client)(nil)
