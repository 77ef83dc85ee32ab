// Package upstream is the HTTP JSON client for the public fares and routes API.
package upstream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lowcost_routes/internal/config"
	"lowcost_routes/internal/models"
)

const (
	airportsPath = "/views/locate/3/airports/en/active"
	routesPath   = "/views/locate/searchWidget/routes/en/airport/%s"
	faresPath    = "/farfnd/v4/oneWayFares/%s/%s/cheapestPerDay"

	// error bodies are truncated to this many bytes in messages
	maxErrorBody = 512
)

// AirportRecord is one entry of the active airports list
type AirportRecord struct {
	IataCode string `json:"iataCode"`
	Name     string `json:"name"`
	Country  struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"country"`
	City struct {
		Name string `json:"name"`
	} `json:"city"`
}

type routeRecord struct {
	ArrivalAirport struct {
		Code string `json:"code"`
	} `json:"arrivalAirport"`
}

// FarePrice is the price block of a fare. Value is nil when the day has no price.
type FarePrice struct {
	Value        *float64 `json:"value"`
	CurrencyCode string   `json:"currencyCode"`
}

// FareRecord is the cheapest fare of one day for a city pair
type FareRecord struct {
	Day           string     `json:"day"`
	DepartureDate string     `json:"departureDate"`
	ArrivalDate   string     `json:"arrivalDate"`
	Price         *FarePrice `json:"price"`
	Unavailable   bool       `json:"unavailable"`
}

type cheapestPerDayResponse struct {
	Outbound struct {
		Fares []FareRecord `json:"fares"`
	} `json:"outbound"`
}

// Client talks to the fares/routes API
type Client struct {
	baseURL    string
	currency   string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rateLimiter
}

// NewClient creates a client from configuration. Certificate verification is
// only disabled when VerifyTLS is explicitly false.
func NewClient(cfg config.UpstreamConfig) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	if !cfg.VerifyTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via UPSTREAM_VERIFY_TLS=false
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	currency := cfg.Currency
	if currency == "" {
		currency = "EUR"
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		currency: currency,
		timeout:  timeout,
		httpClient: &http.Client{
			Transport: transport,
		},
		limiter: newRateLimiter(cfg.MinInterval),
	}
}

// WithBaseURL points the client at another server, used by tests
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Currency returns the currency code sent with every fares query
func (c *Client) Currency() string {
	return c.currency
}

// ActiveAirports fetches the list of active airports
func (c *Client) ActiveAirports(ctx context.Context) ([]AirportRecord, error) {
	var airports []AirportRecord
	if err := c.getJSON(ctx, airportsPath, nil, &airports); err != nil {
		return nil, fmt.Errorf("failed to fetch airports: %w", err)
	}
	return airports, nil
}

// Routes fetches the codes of the airports served directly from airportCode
func (c *Client) Routes(ctx context.Context, airportCode string) ([]string, error) {
	var routes []routeRecord
	path := fmt.Sprintf(routesPath, url.PathEscape(airportCode))
	if err := c.getJSON(ctx, path, nil, &routes); err != nil {
		return nil, fmt.Errorf("failed to fetch destinations from %s: %w", airportCode, err)
	}

	codes := make([]string, 0, len(routes))
	for _, r := range routes {
		if r.ArrivalAirport.Code != "" {
			codes = append(codes, r.ArrivalAirport.Code)
		}
	}
	return codes, nil
}

// CheapestPerDay fetches the cheapest one-way fare of every day in month
func (c *Client) CheapestPerDay(ctx context.Context, from, to string, month time.Time) ([]FareRecord, error) {
	query := url.Values{}
	query.Set("outboundMonthOfDate", month.Format("2006-01-02"))
	query.Set("currency", c.currency)

	path := fmt.Sprintf(faresPath, url.PathEscape(from), url.PathEscape(to))

	var resp cheapestPerDayResponse
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch fares from %s to %s: %w", from, to, err)
	}
	return resp.Outbound.Fares, nil
}

// getJSON performs a GET with the per-call timeout and decodes the body into dest.
// Every failure is reported as models.ErrUpstreamUnavailable.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: unexpected status %d: %s", models.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%w: failed to decode response: %v", models.ErrUpstreamUnavailable, err)
	}
	return nil
}
