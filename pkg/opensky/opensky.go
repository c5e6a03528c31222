// Package opensky provides a client for the OpenSky Network REST API.
//
// API Documentation: https://openskynetwork.github.io/opensky-api/rest.html
// Anonymous access is rate limited; registered users get higher limits via
// HTTP basic auth.
package opensky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/skywatch/flightradar/pkg/flight"
)

const (
	// BaseURL is the OpenSky Network REST API base URL.
	BaseURL = "https://opensky-network.org/api"

	// DefaultTimeout for API requests.
	DefaultTimeout = 10 * time.Second

	// DefaultMinInterval and DefaultMaxInterval bound the adaptive cadence.
	DefaultMinInterval = 15 * time.Second
	DefaultMaxInterval = 45 * time.Second

	// backoffThreshold is the raw state count below which the client asks
	// the controller to slow down: a near-empty response means either a
	// quiet region or throttling, and polling faster helps neither.
	backoffThreshold = 50
)

// Config contains configuration for the OpenSky client.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration

	// MinInterval and MaxInterval bound the next-tick suggestion.
	MinInterval time.Duration
	MaxInterval time.Duration

	// RequestsPerSecond caps the outbound request rate. Defaults to 1,
	// which keeps anonymous accounts inside the OpenSky credit budget.
	RequestsPerSecond float64
}

// Client fetches flight states from the OpenSky Network.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// statesResponse is the raw /states/all response shape. States are
// positional arrays, decoded generically and mapped by the normalizer.
type statesResponse struct {
	Time   int64   `json:"time"`
	States [][]any `json:"states"`
}

// NewClient creates a new OpenSky client. Zero config fields get defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 1
	}
	return &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Name implements flight.Provider.
func (c *Client) Name() string { return "opensky" }

// FetchBatch performs one states/all request and normalizes the result.
// World mode fetches globally; viewport and custom modes send the bounding
// box as lamin/lomin/lamax/lomax query parameters.
//
// Failures are absorbed into TickResult.Err with the maximum interval as
// the cadence suggestion; the returned error is non-nil only when ctx was
// cancelled.
func (c *Client) FetchBatch(ctx context.Context, q flight.Query) (flight.TickResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return flight.TickResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(q), nil)
	if err != nil {
		return c.errResult(err.Error()), nil
	}
	if c.cfg.Username != "" && c.cfg.Password != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "flightradar/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return flight.TickResult{}, ctx.Err()
		}
		return c.errResult(fmt.Sprintf("OpenSky fetch failed: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.errResult(fmt.Sprintf("OpenSky HTTP %d", resp.StatusCode)), nil
	}

	var raw statesResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return c.errResult(fmt.Sprintf("OpenSky: malformed response: %v", err)), nil
	}

	rawCount := len(raw.States)
	return flight.TickResult{
		Flights:      flight.NormalizeOpenSky(raw.States),
		RawCount:     rawCount,
		Epoch:        raw.Time,
		NextInterval: c.nextInterval(rawCount),
	}, nil
}

// buildURL assembles the states/all URL for a query.
func (c *Client) buildURL(q flight.Query) string {
	endpoint := c.cfg.BaseURL + "/states/all"
	if q.Mode == flight.ModeWorld {
		return endpoint
	}
	v := url.Values{}
	v.Set("lamin", formatDeg(q.BBox.MinLat))
	v.Set("lomin", formatDeg(q.BBox.MinLon))
	v.Set("lamax", formatDeg(q.BBox.MaxLat))
	v.Set("lomax", formatDeg(q.BBox.MaxLon))
	return endpoint + "?" + v.Encode()
}

// nextInterval applies the adaptive backoff rule: fewer raw states than the
// threshold doubles the interval (capped), otherwise reset to the minimum.
func (c *Client) nextInterval(rawCount int) time.Duration {
	if rawCount < backoffThreshold {
		next := 2 * c.cfg.MinInterval
		if next > c.cfg.MaxInterval {
			next = c.cfg.MaxInterval
		}
		return next
	}
	return c.cfg.MinInterval
}

func (c *Client) errResult(msg string) flight.TickResult {
	return flight.TickResult{Err: msg, NextInterval: c.cfg.MaxInterval}
}

func formatDeg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
