// Package flight defines the canonical flight record shared by every data
// provider, the provider abstraction the polling controller drives, and the
// normalizers that convert each provider's raw wire shape into canonical
// records.
//
// All position data is in the WGS84 coordinate system; altitudes are meters
// and speeds are meters per second regardless of what the provider reports.
package flight

import (
	"context"
	"time"

	"github.com/skywatch/flightradar/pkg/geo"
)

// FlightRecord is one aircraft state report, provider-independent.
// Nullable wire fields are pointers; a nil Latitude or Longitude never
// survives normalization, so consumers can rely on positions being present.
type FlightRecord struct {
	// ICAO24 is the unique 24-bit transponder address (e.g. "a12345").
	// It is the stable identity of an aircraft across polling ticks.
	ICAO24 string `json:"icao24"`

	// Callsign is the flight number or registration, trimmed. May be empty.
	Callsign string `json:"callsign"`

	// OriginCountry is a registry or country hint. May be empty.
	OriginCountry string `json:"origin_country"`

	// TimePosition is the Unix timestamp of the position report.
	TimePosition *int64 `json:"time_position"`

	// LastContact is the Unix timestamp of the last message received.
	LastContact *int64 `json:"last_contact"`

	// Longitude and Latitude in decimal degrees.
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`

	// BaroAltitude is the barometric altitude in meters.
	BaroAltitude *float64 `json:"baro_altitude"`

	// OnGround reports whether the aircraft is on the ground.
	OnGround bool `json:"on_ground"`

	// Velocity is the ground speed in m/s.
	Velocity *float64 `json:"velocity"`

	// TrueTrack is the ground track in degrees (0 = north, clockwise).
	TrueTrack *float64 `json:"true_track"`

	// VerticalRate is the climb/descend rate in m/s.
	VerticalRate *float64 `json:"vertical_rate"`

	// GeoAltitude is the GNSS altitude in meters.
	GeoAltitude *float64 `json:"geo_altitude"`

	// Squawk is the four-digit transponder code.
	Squawk *string `json:"squawk"`

	// Spi is the special position indicator flag.
	Spi bool `json:"spi"`

	// PositionSource identifies provenance (0 = ADS-B).
	PositionSource int `json:"position_source"`
}

// TickResult is the atomic output of one fetch cycle. It is immutable once
// produced; each tick yields a fresh batch rather than mutating records in
// place.
type TickResult struct {
	// Flights is the normalized batch. Every record has a position.
	Flights []FlightRecord `json:"flights"`

	// RawCount is the number of raw entries the provider returned before
	// normalization dropped incomplete ones.
	RawCount int `json:"raw_count"`

	// Epoch is the provider-reported Unix timestamp of the batch,
	// or 0 when the provider did not supply one.
	Epoch int64 `json:"epoch"`

	// Err is the provider-reported failure, empty on success. Provider
	// failures are data, not control flow: a tick with Err set still
	// carries whatever partial batch could be fetched.
	Err string `json:"error,omitempty"`

	// NextInterval is the provider's cadence suggestion for the next tick,
	// or 0 to keep the currently configured interval.
	NextInterval time.Duration `json:"-"`
}

// Mode selects the geographic scope of a fetch.
type Mode string

const (
	// ModeWorld fetches every tracked aircraft with no regional filter.
	ModeWorld Mode = "world"

	// ModeViewport fetches the region currently visible on the map.
	ModeViewport Mode = "viewport"

	// ModeCustom fetches a user-configured fixed region.
	ModeCustom Mode = "custom"
)

// Query describes one fetch request issued by the polling controller.
// BBox is ignored in world mode.
type Query struct {
	Mode Mode
	BBox geo.BoundingBox
}

// Provider is implemented by every flight data source the controller can
// drive: the HTTP clients and the offline demo generator.
//
// FetchBatch returns a non-nil error only when the request was cancelled
// via ctx; provider-side failures (network, HTTP status, malformed payload)
// are absorbed into TickResult.Err so a bad provider can never crash the
// polling loop.
type Provider interface {
	Name() string
	FetchBatch(ctx context.Context, q Query) (TickResult, error)
}
