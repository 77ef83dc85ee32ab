package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lowcost_routes/internal/models"
)

func TestItinerariesPDF(t *testing.T) {
	dep := time.Date(2025, 5, 3, 6, 0, 0, 0, time.UTC)
	first := models.Leg{From: "DUB", To: "STN", DepartureTime: dep, ArrivalTime: dep.Add(80 * time.Minute), Price: 30}
	second := models.Leg{From: "STN", To: "BCN", DepartureTime: dep.Add(380 * time.Minute), ArrivalTime: dep.Add(590 * time.Minute), Price: 20}

	var its []models.Itinerary
	for i := 0; i < 60; i++ {
		its = append(its, models.NewConnectingItinerary(first, second))
	}
	resp := &models.SearchResponse{From: "DUB", To: "BCN", Month: "2025-05", Currency: "EUR", Itineraries: its, Count: len(its)}

	out, err := ItinerariesPDF(resp)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestItinerariesPDFEmpty(t *testing.T) {
	out, err := ItinerariesPDF(&models.SearchResponse{From: "DUB", To: "BCN", Month: "2025-05", Currency: "EUR"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestItineraryRow(t *testing.T) {
	dep := time.Date(2025, 5, 3, 6, 0, 0, 0, time.UTC)
	first := models.Leg{From: "DUB", To: "STN", DepartureTime: dep, ArrivalTime: dep.Add(80 * time.Minute), Price: 30}
	second := models.Leg{From: "STN", To: "BCN", DepartureTime: dep.Add(380 * time.Minute), ArrivalTime: dep.Add(590 * time.Minute), Price: 20}

	assert.Equal(t, []string{
		"DUB-STN | STN-BCN",
		"03 May 06:00",
		"03 May 07:20",
		"03 May 12:20",
		"03 May 15:50",
		"5.0",
		"9.8",
		"50.00",
	}, itineraryRow(models.NewConnectingItinerary(first, second)))

	direct := itineraryRow(models.NewDirectItinerary(models.Leg{From: "DUB", To: "BCN", DepartureTime: dep, ArrivalTime: dep.Add(3 * time.Hour), Price: 45}))
	assert.Equal(t, []string{"DUB-BCN (Direct)", "03 May 06:00", "", "", "03 May 09:00", "0.0", "3.0", "45.00"}, direct)
	assert.Len(t, direct, len(columns))
}
