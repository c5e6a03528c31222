// Package routes provides a client for callsign route lookups against the
// aviationstack API. Given a flight's callsign it resolves the airline and
// the origin and destination airports.
//
// API Documentation: https://aviationstack.com/documentation
// Rate Limits: the free tier allows 100 requests/month, paid tiers more.
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the aviationstack API v1 base URL
	BaseURL = "https://api.aviationstack.com/v1"

	// DefaultTimeout for API requests
	DefaultTimeout = 10 * time.Second
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("route lookup not configured")

// ErrNotFound is returned when the API has no route for a callsign.
var ErrNotFound = errors.New("route not found")

// Route describes the resolved itinerary for a callsign.
type Route struct {
	Callsign    string `json:"callsign"`
	Airline     string `json:"airline,omitempty"`
	FromCode    string `json:"from_code,omitempty"`
	FromAirport string `json:"from_airport,omitempty"`
	ToCode      string `json:"to_code,omitempty"`
	ToAirport   string `json:"to_airport,omitempty"`
}

// Config contains configuration for the route lookup client.
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client represents an aviationstack route lookup client. Resolved routes
// are cached per callsign for the life of the client; a route does not
// change mid-flight.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter

	mu    sync.Mutex
	cache map[string]Route
}

// NewClient creates a new route lookup client. A client with an empty API
// key is valid but every lookup returns ErrNotConfigured.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 1
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cache:       make(map[string]Route),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Lookup resolves the route for a callsign.
//
// Returns ErrNotConfigured when no API key is set, ErrNotFound when the API
// has no matching flight. Cached results are served without a request.
func (c *Client) Lookup(ctx context.Context, callsign string) (*Route, error) {
	callsign = strings.ToUpper(strings.TrimSpace(callsign))
	if callsign == "" {
		return nil, ErrNotFound
	}
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	if cached, ok := c.cache[callsign]; ok {
		c.mu.Unlock()
		return &cached, nil
	}
	c.mu.Unlock()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("access_key", c.apiKey)
	params.Set("flight_icao", callsign)

	reqURL := fmt.Sprintf("%s/flights?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == 404 {
		return nil, ErrNotFound
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Data []struct {
			Airline struct {
				Name string `json:"name"`
			} `json:"airline"`
			Departure struct {
				IATA    string `json:"iata"`
				Airport string `json:"airport"`
			} `json:"departure"`
			Arrival struct {
				IATA    string `json:"iata"`
				Airport string `json:"airport"`
			} `json:"arrival"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if len(response.Data) == 0 {
		return nil, ErrNotFound
	}

	first := response.Data[0]
	route := Route{
		Callsign:    callsign,
		Airline:     first.Airline.Name,
		FromCode:    first.Departure.IATA,
		FromAirport: first.Departure.Airport,
		ToCode:      first.Arrival.IATA,
		ToAirport:   first.Arrival.Airport,
	}

	c.mu.Lock()
	c.cache[callsign] = route
	c.mu.Unlock()

	return &route, nil
}
