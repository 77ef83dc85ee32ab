package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"lowcost_routes/internal/models"
)

var columns = []struct {
	title string
	width float64
}{
	{"Connection", 40},
	{"Departure", 24},
	{"Arrive via", 24},
	{"Leave via", 24},
	{"Arrival", 24},
	{"Layover (h)", 16},
	{"Total (h)", 16},
	{"Price", 18},
}

// ItinerariesPDF renders a search response as a one-table A4 report
func ItinerariesPDF(resp *models.SearchResponse) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 15, 12)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Flights %s to %s", resp.From, resp.To), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, fmt.Sprintf("Month %s, %d itineraries, prices in %s", resp.Month, resp.Count, resp.Currency), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated "+time.Now().UTC().Format("02 Jan 2006, 15:04 UTC"), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range columns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFillColor(240, 240, 240)
		pdf.SetFont("Helvetica", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	header()

	if len(resp.Itineraries) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 8, "No flights found for this month.", "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 8)
	for i, it := range resp.Itineraries {
		fill := i%2 == 1

		cells := itineraryRow(it)
		for j, c := range columns {
			align := "L"
			if j > 0 {
				align = "R"
			}
			pdf.CellFormat(c.width, 6, cells[j], "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

const timeLayout = "02 Jan 15:04"

// itineraryRow returns the table cells of one itinerary. The connection
// columns stay empty for direct flights.
func itineraryRow(it models.Itinerary) []string {
	arriveVia, leaveVia := "", ""
	last := it.FirstLeg
	if it.SecondLeg != nil {
		arriveVia = it.FirstLeg.ArrivalTime.Format(timeLayout)
		leaveVia = it.SecondLeg.DepartureTime.Format(timeLayout)
		last = *it.SecondLeg
	}

	return []string{
		it.Connection,
		it.FirstLeg.DepartureTime.Format(timeLayout),
		arriveVia,
		leaveVia,
		last.ArrivalTime.Format(timeLayout),
		fmt.Sprintf("%.1f", it.LayoverHours),
		fmt.Sprintf("%.1f", it.TotalDurationHours),
		fmt.Sprintf("%.2f", it.TotalPrice),
	}
}
