// Package demo provides a deterministic synthetic flight source for running
// the application without any network access. It implements flight.Provider
// so the polling controller can drive it exactly like a real API client.
package demo

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/skywatch/flightradar/pkg/flight"
	"github.com/skywatch/flightradar/pkg/geo"
)

// DefaultCount is the batch size when none is configured.
const DefaultCount = 60

// Generator produces deterministic pseudo-random flights inside a bounding
// box. Positions are seeded on the current minute bucket plus the record
// index, so batches are stable within a wall-clock minute and drift between
// minutes; per-record attributes (longitude, speed, heading, altitude) are
// seeded on the index alone and never change within a session.
type Generator struct {
	count int
	now   func() time.Time
}

// NewGenerator creates a generator producing count records per batch.
// count <= 0 selects DefaultCount.
func NewGenerator(count int) *Generator {
	if count <= 0 {
		count = DefaultCount
	}
	return &Generator{count: count, now: time.Now}
}

// Name implements flight.Provider.
func (g *Generator) Name() string { return "demo" }

// FetchBatch implements flight.Provider. Generation is synchronous and
// never fails; NextInterval is 0, leaving the configured cadence untouched.
func (g *Generator) FetchBatch(_ context.Context, q flight.Query) (flight.TickResult, error) {
	recs := generateAt(q.BBox.Clamp(), g.count, g.now())
	return flight.TickResult{
		Flights:  recs,
		RawCount: len(recs),
		Epoch:    g.now().Unix(),
	}, nil
}

// Generate produces one deterministic batch inside bbox at the current time.
func Generate(bbox geo.BoundingBox, count int) []flight.FlightRecord {
	return generateAt(bbox.Clamp(), count, time.Now())
}

func generateAt(bbox geo.BoundingBox, count int, now time.Time) []flight.FlightRecord {
	minuteBucket := float64(now.UnixMilli()) / 60000.0
	epoch := now.Unix()

	recs := make([]flight.FlightRecord, 0, count)
	for i := 0; i < count; i++ {
		fi := float64(i)
		lat := bbox.MinLat + seededRandom(minuteBucket+fi)*bbox.LatSpan()
		lon := bbox.MinLon + seededRandom(fi+42)*bbox.LonSpan()
		vel := 180 + math.Floor(seededRandom(fi+99)*220)
		hdg := math.Floor(seededRandom(fi+7) * 360)
		alt := 3000 + math.Floor(seededRandom(fi+3)*11000)
		vr := math.Floor(seededRandom(fi+5)*10) - 5

		recs = append(recs, flight.FlightRecord{
			ICAO24:        demoICAO(i),
			Callsign:      fmt.Sprintf("DEMO%d", 100+i),
			OriginCountry: "Demo",
			TimePosition:  &epoch,
			LastContact:   &epoch,
			Longitude:     &lon,
			Latitude:      &lat,
			BaroAltitude:  &alt,
			Velocity:      &vel,
			TrueTrack:     &hdg,
			VerticalRate:  &vr,
			GeoAltitude:   &alt,
		})
	}
	return recs
}

// seededRandom is the fractional-sine pseudo-random function the demo data
// contract is built on: stable for a given seed, uniformly scattered across
// [0,1) for varying seeds.
func seededRandom(seed float64) float64 {
	x := math.Sin(seed) * 10000
	return x - math.Floor(x)
}

// demoICAO synthesizes a stable "demo"-prefixed hex identity for an index,
// right-padded with zeros to at least six characters.
func demoICAO(i int) string {
	s := "demo" + strconv.FormatInt(int64(i), 16)
	for len(s) < 6 {
		s += "0"
	}
	return s
}
