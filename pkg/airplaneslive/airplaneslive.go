// Package airplaneslive provides a client for the airplanes.live REST API.
//
// API Documentation: https://airplanes.live/api-guide/
// The positions endpoint rejects very large bounding boxes, so oversized
// regions are split into tiles and fetched concurrently.
package airplaneslive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/skywatch/flightradar/pkg/flight"
	"github.com/skywatch/flightradar/pkg/geo"
)

const (
	// BaseURL is the airplanes.live v2 API base URL.
	BaseURL = "https://api.airplanes.live/v2"

	// DefaultTimeout for API requests.
	DefaultTimeout = 10 * time.Second

	// DefaultMinInterval and DefaultMaxInterval bound the adaptive cadence.
	DefaultMinInterval = 15 * time.Second
	DefaultMaxInterval = 30 * time.Second

	// maxTileSpanDeg is the largest bounding box span the API accepts per
	// request; wider regions are tiled.
	maxTileSpanDeg = 20.0

	// maxTiles caps the fan-out of one tick. Coverage beyond this is
	// truncated rather than hammering the API.
	maxTiles = 12

	// backoffThreshold mirrors the OpenSky rule: sparse responses slow
	// the cadence down.
	backoffThreshold = 50
)

// Config contains configuration for the airplanes.live client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	MinInterval time.Duration
	MaxInterval time.Duration

	// RequestsPerSecond caps the sustained request rate. Burst capacity
	// covers a full tile fan-out so one tick is never throttled against
	// itself. Defaults to 1.
	RequestsPerSecond float64
}

// Client fetches aircraft positions from airplanes.live.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// positionsResponse is the raw positions endpoint response shape.
type positionsResponse struct {
	Now      float64               `json:"now"`
	Aircraft []flight.LiveAircraft `json:"aircraft"`
}

// tileResult is one tile's outcome: either aircraft, or an HTTP status hint
// when the API refused the tile (some regions 404). Both never at once.
type tileResult struct {
	aircraft []flight.LiveAircraft
	now      int64
	errHint  string
}

// NewClient creates a new airplanes.live client. Zero config fields get
// defaults.
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
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), maxTiles),
	}
}

// Name implements flight.Provider.
func (c *Client) Name() string { return "airplaneslive" }

// FetchBatch fetches all aircraft in the queried region. A region spanning
// more than 20 degrees on either axis is split into at most 12 tiles fetched
// concurrently; tile failures are tolerated and folded per the aggregation
// policy below. World mode queries the whole-planet box.
//
// Aggregation: aircraft lists are concatenated in tile order with no
// cross-tile deduplication (a boundary-straddling aircraft may appear
// twice), the first tile error hint observed becomes the batch error, and
// the epoch is overwritten by each tile's now value in tile order, so the
// last writer wins rather than the newest value. That epoch choice
// reproduces the behavior the rest of the app was built against.
func (c *Client) FetchBatch(ctx context.Context, q flight.Query) (flight.TickResult, error) {
	bbox := q.BBox.Clamp()
	if q.Mode == flight.ModeWorld {
		bbox = geo.World
	}

	var results []tileResult
	if bbox.LatSpan() > maxTileSpanDeg || bbox.LonSpan() > maxTileSpanDeg {
		tiles := geo.SplitIntoTiles(bbox, maxTileSpanDeg, maxTiles)
		results = make([]tileResult, len(tiles))

		g, gctx := errgroup.WithContext(ctx)
		for i, tile := range tiles {
			g.Go(func() error {
				res, err := c.fetchTile(gctx, tile)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if ctx.Err() != nil {
				return flight.TickResult{}, ctx.Err()
			}
			return c.errResult(fmt.Sprintf("airplanes.live fetch failed: %v", err)), nil
		}
	} else {
		res, err := c.fetchTile(ctx, bbox)
		if err != nil {
			if ctx.Err() != nil {
				return flight.TickResult{}, ctx.Err()
			}
			return c.errResult(fmt.Sprintf("airplanes.live fetch failed: %v", err)), nil
		}
		results = []tileResult{res}
	}

	epoch := time.Now().Unix()
	var list []flight.LiveAircraft
	var firstErr string
	for _, r := range results {
		if r.errHint != "" && firstErr == "" {
			firstErr = r.errHint
		}
		list = append(list, r.aircraft...)
		if r.now != 0 {
			epoch = r.now
		}
	}

	rawCount := len(list)
	return flight.TickResult{
		Flights:      flight.NormalizeAirplanesLive(list, epoch),
		RawCount:     rawCount,
		Epoch:        epoch,
		Err:          firstErr,
		NextInterval: c.nextInterval(rawCount),
	}, nil
}

// fetchTile performs one positions request. A non-2xx status is not a
// failure of the tick: some regions and box sizes 404, so the tile comes
// back empty with a status hint and the remaining tiles still count.
// The returned error is reserved for transport-level failures.
func (c *Client) fetchTile(ctx context.Context, bbox geo.BoundingBox) (tileResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return tileResult{}, err
	}

	url := fmt.Sprintf("%s/positions?bbox=%s,%s,%s,%s", c.cfg.BaseURL,
		formatDeg(bbox.MinLat), formatDeg(bbox.MinLon),
		formatDeg(bbox.MaxLat), formatDeg(bbox.MaxLon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return tileResult{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "flightradar/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tileResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return tileResult{errHint: fmt.Sprintf("HTTP %d", resp.StatusCode)}, nil
	}

	var raw positionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return tileResult{errHint: fmt.Sprintf("malformed response: %v", err)}, nil
	}
	return tileResult{aircraft: raw.Aircraft, now: int64(raw.Now)}, nil
}

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
