package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Leg represents a single priced flight between two airports
type Leg struct {
	From          string    `json:"from"`
	To            string    `json:"to"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Price         float64   `json:"price"`
}

// Duration returns the time spent in the air for this leg
func (l Leg) Duration() time.Duration {
	return l.ArrivalTime.Sub(l.DepartureTime)
}

// Itinerary represents a complete trip (direct or one-stop)
type Itinerary struct {
	Connection         string  `json:"connection"`
	Via                string  `json:"via,omitempty"`
	FirstLeg           Leg     `json:"first_leg"`
	SecondLeg          *Leg    `json:"second_leg,omitempty"`
	LayoverHours       float64 `json:"layover_hours"`
	TotalDurationHours float64 `json:"total_duration_hours"`
	TotalPrice         float64 `json:"total_price"`
	Stops              int     `json:"stops"`
}

// NewDirectItinerary builds an itinerary from a single leg
func NewDirectItinerary(leg Leg) Itinerary {
	it := Itinerary{FirstLeg: leg}
	it.calculate()
	return it
}

// NewConnectingItinerary builds a one-stop itinerary. The caller is responsible
// for checking the layover window.
func NewConnectingItinerary(first, second Leg) Itinerary {
	it := Itinerary{FirstLeg: first, SecondLeg: &second, Via: first.To}
	it.calculate()
	return it
}

// Legs returns the legs of the itinerary in flying order
func (it *Itinerary) Legs() []Leg {
	if it.SecondLeg == nil {
		return []Leg{it.FirstLeg}
	}
	return []Leg{it.FirstLeg, *it.SecondLeg}
}

// Layover returns the ground time at the connecting airport, zero for direct trips
func (it *Itinerary) Layover() time.Duration {
	if it.SecondLeg == nil {
		return 0
	}
	return it.SecondLeg.DepartureTime.Sub(it.FirstLeg.ArrivalTime)
}

func (it *Itinerary) calculate() {
	legs := it.Legs()
	last := legs[len(legs)-1]

	it.TotalPrice = 0
	for _, leg := range legs {
		it.TotalPrice += leg.Price
	}

	it.Stops = len(legs) - 1
	it.LayoverHours = roundHours(it.Layover())
	it.TotalDurationHours = roundHours(last.ArrivalTime.Sub(it.FirstLeg.DepartureTime))

	if it.SecondLeg == nil {
		it.Connection = fmt.Sprintf("%s-%s (Direct)", it.FirstLeg.From, it.FirstLeg.To)
		return
	}

	parts := make([]string, 0, len(legs))
	for _, leg := range legs {
		parts = append(parts, leg.From+"-"+leg.To)
	}
	it.Connection = strings.Join(parts, " | ")
}

// roundHours converts a duration to hours rounded to one decimal place
func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*10) / 10
}

// SearchRequest represents a route search for a calendar month
type SearchRequest struct {
	From           string    `json:"from"`
	To             string    `json:"to"`
	Month          time.Time `json:"month"`
	MaxLayoverDays int       `json:"max_layover_days"`
}

// MaxLayover returns the longest accepted ground time at a connecting airport.
// Windows too large for a time.Duration are clamped to the largest one.
func (r *SearchRequest) MaxLayover() time.Duration {
	const day = 24 * time.Hour
	if int64(r.MaxLayoverDays) > math.MaxInt64/int64(day) {
		return math.MaxInt64
	}
	return time.Duration(r.MaxLayoverDays) * day
}

// Validate checks the request before any upstream call is made
func (r *SearchRequest) Validate() error {
	if r.From == "" || r.To == "" {
		return fmt.Errorf("%w: departure and arrival airports are required", ErrInvalidRequest)
	}
	if r.From == r.To {
		return fmt.Errorf("%w: departure and arrival airports must differ", ErrInvalidRequest)
	}
	if r.MaxLayoverDays <= 0 {
		return fmt.Errorf("%w: max layover days must be positive, got %d", ErrInvalidRequest, r.MaxLayoverDays)
	}
	if r.Month.IsZero() {
		return fmt.Errorf("%w: travel month is required", ErrInvalidRequest)
	}
	return nil
}

// SearchResponse represents the response for a route search
type SearchResponse struct {
	SearchID    string      `json:"search_id"`
	From        string      `json:"from"`
	To          string      `json:"to"`
	Month       string      `json:"month"`
	Currency    string      `json:"currency"`
	Itineraries []Itinerary `json:"itineraries"`
	Count       int         `json:"count"`
}

// ParseTravelMonth accepts "2006-01" or "2006-01-02" and returns the first
// instant of that month in UTC.
func ParseTravelMonth(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return StartOfMonth(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid travel month %q, use YYYY-MM", ErrInvalidRequest, value)
}

// StartOfMonth truncates t to the first day of its month in UTC
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
