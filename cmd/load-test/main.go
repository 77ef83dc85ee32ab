package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"lowcost_routes/internal/models"
	"lowcost_routes/pkg/logger"
)

type LoadTest struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

type TestResult struct {
	TestName   string
	Success    bool
	Error      string
	Duration   time.Duration
	StatusCode int
}

type ValidationResult struct {
	TotalTests  int
	PassedTests int
	FailedTests int
	Results     []TestResult
}

func (v *ValidationResult) add(r TestResult) {
	v.TotalTests++
	if r.Success {
		v.PassedTests++
	} else {
		v.FailedTests++
	}
	v.Results = append(v.Results, r)
}

func (v *ValidationResult) merge(o ValidationResult) {
	v.TotalTests += o.TotalTests
	v.PassedTests += o.PassedTests
	v.FailedTests += o.FailedTests
	v.Results = append(v.Results, o.Results...)
}

func NewLoadTest(baseURL string, log *slog.Logger) *LoadTest {
	return &LoadTest{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 90 * time.Second},
		log:     log,
	}
}

// validateSearch checks the ordering and layover guarantees of a search response
func validateSearch(resp *models.SearchResponse, from, to string, maxLayoverDays int) error {
	if resp.SearchID == "" {
		return fmt.Errorf("missing search_id")
	}
	if resp.Count != len(resp.Itineraries) {
		return fmt.Errorf("count %d does not match %d itineraries", resp.Count, len(resp.Itineraries))
	}

	maxLayover := time.Duration(maxLayoverDays) * 24 * time.Hour
	for i, it := range resp.Itineraries {
		if i > 0 && it.TotalPrice < resp.Itineraries[i-1].TotalPrice {
			return fmt.Errorf("itinerary %d: price %.2f below previous %.2f", i, it.TotalPrice, resp.Itineraries[i-1].TotalPrice)
		}
		if it.FirstLeg.From != from {
			return fmt.Errorf("itinerary %d: departs from %s, want %s", i, it.FirstLeg.From, from)
		}
		if it.SecondLeg == nil {
			if it.FirstLeg.To != to {
				return fmt.Errorf("itinerary %d: direct flight lands at %s, want %s", i, it.FirstLeg.To, to)
			}
			continue
		}
		if it.SecondLeg.From != it.FirstLeg.To {
			return fmt.Errorf("itinerary %d: second leg leaves %s, first leg lands at %s", i, it.SecondLeg.From, it.FirstLeg.To)
		}
		if it.SecondLeg.To != to {
			return fmt.Errorf("itinerary %d: lands at %s, want %s", i, it.SecondLeg.To, to)
		}
		if layover := it.Layover(); layover <= 0 || layover > maxLayover {
			return fmt.Errorf("itinerary %d: layover %s outside (0, %s]", i, layover, maxLayover)
		}
	}
	return nil
}

func (lt *LoadTest) search(from, to, month string, maxLayoverDays int) TestResult {
	name := fmt.Sprintf("Search %s-%s %s", from, to, month)
	start := time.Now()

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	q.Set("month", month)
	q.Set("max_layover_days", strconv.Itoa(maxLayoverDays))

	resp, err := lt.client.Get(lt.baseURL + "/api/routes/search?" + q.Encode())
	if err != nil {
		return TestResult{TestName: name, Error: fmt.Sprintf("Request failed: %v", err), Duration: time.Since(start)}
	}
	defer resp.Body.Close()

	result := TestResult{TestName: name, StatusCode: resp.StatusCode}

	// a 502 means the fares source failed, which the service reports correctly
	if resp.StatusCode == http.StatusBadGateway {
		result.Success = true
		result.Duration = time.Since(start)
		return result
	}
	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Sprintf("Expected status 200 or 502, got %d", resp.StatusCode)
		result.Duration = time.Since(start)
		return result
	}

	var body models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		result.Error = fmt.Sprintf("Failed to decode response: %v", err)
		result.Duration = time.Since(start)
		return result
	}
	if err := validateSearch(&body, from, to, maxLayoverDays); err != nil {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

func (lt *LoadTest) runSearchTest(concurrentUsers int, duration time.Duration, routes [][2]string, month string) ValidationResult {
	lt.log.Info("starting route search load test", "users", concurrentUsers, "duration", duration)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results ValidationResult
	)
	endTime := time.Now().Add(duration)

	for i := 0; i < concurrentUsers; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(userID)))
			for time.Now().Before(endTime) {
				route := routes[rng.Intn(len(routes))]
				result := lt.search(route[0], route[1], month, rng.Intn(3)+1)
				result.TestName = fmt.Sprintf("User %d %s", userID, result.TestName)

				mu.Lock()
				results.add(result)
				mu.Unlock()

				time.Sleep(time.Duration(rng.Intn(1000)) * time.Millisecond)
			}
		}(i)
	}
	wg.Wait()

	lt.logSummary("route search load test completed", results)
	return results
}

func (lt *LoadTest) runAirportsTest(concurrentUsers int) ValidationResult {
	lt.log.Info("starting airports test", "users", concurrentUsers)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results ValidationResult
	)

	for i := 0; i < concurrentUsers; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			start := time.Now()
			result := TestResult{TestName: fmt.Sprintf("Airports User %d", userID)}

			resp, err := lt.client.Get(lt.baseURL + "/api/airports")
			if err != nil {
				result.Error = fmt.Sprintf("Request failed: %v", err)
			} else {
				defer resp.Body.Close()
				result.StatusCode = resp.StatusCode

				var airports []models.Airport
				switch {
				case resp.StatusCode != http.StatusOK:
					result.Error = fmt.Sprintf("Expected status 200, got %d", resp.StatusCode)
				case json.NewDecoder(resp.Body).Decode(&airports) != nil:
					result.Error = "Failed to decode airports"
				case len(airports) == 0:
					result.Error = "Airport list is empty"
				default:
					result.Success = true
				}
			}
			result.Duration = time.Since(start)

			mu.Lock()
			results.add(result)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	lt.logSummary("airports test completed", results)
	return results
}

func (lt *LoadTest) logSummary(msg string, r ValidationResult) {
	rate := 0.0
	if r.TotalTests > 0 {
		rate = float64(r.PassedTests) / float64(r.TotalTests) * 100
	}
	lt.log.Info(msg,
		"total", r.TotalTests,
		"passed", r.PassedTests,
		"failed", r.FailedTests,
		"success_rate", fmt.Sprintf("%.2f%%", rate),
	)
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "route service base URL")
	users := flag.Int("users", 10, "concurrent users")
	duration := flag.Duration("duration", 30*time.Second, "search test duration")
	month := flag.String("month", time.Now().AddDate(0, 1, 0).Format("2006-01"), "travel month, YYYY-MM")
	flag.Parse()

	log := logger.New("info")
	lt := NewLoadTest(*baseURL, log)

	routes := [][2]string{
		{"DUB", "BCN"},
		{"STN", "BGY"},
		{"DUB", "MAD"},
		{"BCN", "DUB"},
	}

	var all ValidationResult
	all.merge(lt.runAirportsTest(*users))
	all.merge(lt.runSearchTest(*users, *duration, routes, *month))

	for _, r := range all.Results {
		if !r.Success {
			log.Warn("test failed", "test", r.TestName, "error", r.Error, "status", r.StatusCode, "duration", r.Duration)
		}
	}
	lt.logSummary("load test summary", all)

	if all.FailedTests > 0 {
		os.Exit(1)
	}
}
