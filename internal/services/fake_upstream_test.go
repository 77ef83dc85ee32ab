package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"lowcost_routes/internal/cache"
	"lowcost_routes/internal/models"
	"lowcost_routes/internal/upstream"
)

// fakeUpstream serves canned airports, routes and fares and counts calls
type fakeUpstream struct {
	mu sync.Mutex

	airports    []upstream.AirportRecord
	airportsErr error
	routes      map[string][]string
	routeErrs   map[string]error
	fares       map[string][]upstream.FareRecord
	fareErrs    map[string]error

	airportCalls int
	routeCalls   map[string]int
	fareCalls    map[string]int
}

func newFakeUpstream(codes ...string) *fakeUpstream {
	f := &fakeUpstream{
		routes:     make(map[string][]string),
		routeErrs:  make(map[string]error),
		fares:      make(map[string][]upstream.FareRecord),
		fareErrs:   make(map[string]error),
		routeCalls: make(map[string]int),
		fareCalls:  make(map[string]int),
	}
	for _, c := range codes {
		r := upstream.AirportRecord{IataCode: c, Name: "Airport " + c}
		f.airports = append(f.airports, r)
	}
	return f
}

// route adds a one-way direct route
func (f *fakeUpstream) route(from, to string) {
	f.routes[from] = append(f.routes[from], to)
}

func (f *fakeUpstream) addFares(from, to string, fares ...upstream.FareRecord) {
	f.fares[from+"-"+to] = append(f.fares[from+"-"+to], fares...)
}

func (f *fakeUpstream) ActiveAirports(context.Context) ([]upstream.AirportRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.airportCalls++
	if f.airportsErr != nil {
		return nil, f.airportsErr
	}
	return f.airports, nil
}

func (f *fakeUpstream) Routes(_ context.Context, code string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routeCalls[code]++
	if err := f.routeErrs[code]; err != nil {
		return nil, err
	}
	return f.routes[code], nil
}

func (f *fakeUpstream) CheapestPerDay(_ context.Context, from, to string, _ time.Time) ([]upstream.FareRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := from + "-" + to
	f.fareCalls[key]++
	if err := f.fareErrs[key]; err != nil {
		return nil, err
	}
	return f.fares[key], nil
}

func (f *fakeUpstream) Currency() string {
	return "EUR"
}

func (f *fakeUpstream) totalRouteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.routeCalls {
		total += n
	}
	return total
}

func (f *fakeUpstream) totalFareCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.fareCalls {
		total += n
	}
	return total
}

func fare(departure, arrival string, price float64) upstream.FareRecord {
	return upstream.FareRecord{
		Day:           departure[:10],
		DepartureDate: departure,
		ArrivalDate:   arrival,
		Price:         &upstream.FarePrice{Value: &price, CurrencyCode: "EUR"},
	}
}

func unavailableFare(day string) upstream.FareRecord {
	return upstream.FareRecord{Day: day, Unavailable: true}
}

func unpricedFare(departure, arrival string) upstream.FareRecord {
	return upstream.FareRecord{Day: departure[:10], DepartureDate: departure, ArrivalDate: arrival}
}

func errUnavailable(what string) error {
	return fmt.Errorf("%w: %s", models.ErrUpstreamUnavailable, what)
}

type testServices struct {
	airports    *AirportService
	routes      *RouteService
	fares       *FareService
	itineraries *ItineraryService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServices wires the services over src. A nil store disables caching.
func newTestServices(t *testing.T, src *fakeUpstream, store cache.Store) testServices {
	t.Helper()
	log := discardLogger()
	loader := cache.NewLoader(store, time.Hour, log)

	airports := NewAirportService(src, loader, log)
	routes := NewRouteService(src, airports, loader, log, 4)
	fares := NewFareService(src, routes, loader, log)
	return testServices{
		airports:    airports,
		routes:      routes,
		fares:       fares,
		itineraries: NewItineraryService(routes, fares, loader, log, 4, src.Currency()),
	}
}

var may2025 = time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
