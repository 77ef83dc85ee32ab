package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lowcost_routes/internal/models"
)

func leg(from, to string, dep time.Time, hours int, price float64) models.Leg {
	return models.Leg{From: from, To: to, DepartureTime: dep, ArrivalTime: dep.Add(time.Duration(hours) * time.Hour), Price: price}
}

func TestValidateSearch(t *testing.T) {
	dep := time.Date(2025, 5, 3, 6, 0, 0, 0, time.UTC)
	direct := models.NewDirectItinerary(leg("DUB", "BCN", dep, 3, 45))
	connecting := models.NewConnectingItinerary(leg("DUB", "STN", dep, 1, 30), leg("STN", "BCN", dep.Add(6*time.Hour), 2, 20))

	ok := &models.SearchResponse{SearchID: "id", Itineraries: []models.Itinerary{direct, connecting}, Count: 2}
	assert.NoError(t, validateSearch(ok, "DUB", "BCN", 3))

	unsorted := &models.SearchResponse{SearchID: "id", Itineraries: []models.Itinerary{connecting, direct}, Count: 2}
	assert.Error(t, validateSearch(unsorted, "DUB", "BCN", 3))

	wrongCount := &models.SearchResponse{SearchID: "id", Itineraries: []models.Itinerary{direct}, Count: 2}
	assert.Error(t, validateSearch(wrongCount, "DUB", "BCN", 3))

	long := models.NewConnectingItinerary(leg("DUB", "STN", dep, 1, 30), leg("STN", "BCN", dep.Add(80*time.Hour), 2, 20))
	tooLong := &models.SearchResponse{SearchID: "id", Itineraries: []models.Itinerary{long}, Count: 1}
	assert.Error(t, validateSearch(tooLong, "DUB", "BCN", 3))
}
