package flight

import (
	"strings"

	"github.com/skywatch/flightradar/pkg/units"
)

// groundSpeedThresholdKt: airplanes.live has no explicit on-ground flag, so
// ground state is derived from ground speed below this value in knots.
const groundSpeedThresholdKt = 30.0

// NormalizeOpenSky converts OpenSky positional state arrays into canonical
// records. A state is dropped when it has fewer than 17 elements or no
// latitude/longitude; malformed individual fields degrade to nil rather than
// failing the batch.
//
// Index map (index 12, sensors, is unused):
//
//	0 icao24, 1 callsign, 2 origin_country, 3 time_position, 4 last_contact,
//	5 longitude, 6 latitude, 7 baro_altitude, 8 on_ground, 9 velocity,
//	10 true_track, 11 vertical_rate, 13 geo_altitude, 14 squawk, 15 spi,
//	16 position_source
func NormalizeOpenSky(states [][]any) []FlightRecord {
	records := make([]FlightRecord, 0, len(states))
	for _, s := range states {
		if len(s) < 17 {
			continue
		}
		lon := asFloat(s[5])
		lat := asFloat(s[6])
		if lon == nil || lat == nil {
			continue
		}

		rec := FlightRecord{
			ICAO24:        asString(s[0]),
			Callsign:      strings.TrimSpace(asString(s[1])),
			OriginCountry: asString(s[2]),
			TimePosition:  asInt64(s[3]),
			LastContact:   asInt64(s[4]),
			Longitude:     lon,
			Latitude:      lat,
			BaroAltitude:  asFloat(s[7]),
			OnGround:      asBool(s[8]),
			Velocity:      asFloat(s[9]),
			TrueTrack:     asFloat(s[10]),
			VerticalRate:  asFloat(s[11]),
			GeoAltitude:   asFloat(s[13]),
			Spi:           asBool(s[15]),
		}
		if sq := asString(s[14]); sq != "" {
			rec.Squawk = &sq
		}
		if ps := asInt64(s[16]); ps != nil {
			rec.PositionSource = int(*ps)
		}
		records = append(records, rec)
	}
	return records
}

// LiveAircraft is one raw aircraft entry from the airplanes.live API.
// Fields that may be absent are pointers; alt_baro and alt_geom are untyped
// because the API reports the string "ground" for aircraft on the surface.
type LiveAircraft struct {
	Hex      string   `json:"hex"`
	Flight   *string  `json:"flight"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	AltBaro  any      `json:"alt_baro"`
	AltGeom  any      `json:"alt_geom"`
	Gs       *float64 `json:"gs"`
	Track    *float64 `json:"track"`
	BaroRate *float64 `json:"baro_rate"`
	GeomRate *float64 `json:"geom_rate"`
	Squawk   string   `json:"squawk"`
	Country  string   `json:"country"`
	Reg      string   `json:"r"`
}

// NormalizeAirplanesLive converts airplanes.live aircraft entries into
// canonical records. Entries missing lat or lon are dropped. Imperial units
// are converted: altitudes feet to meters, ground speed knots to m/s,
// vertical rates feet/minute to m/s. epoch stamps every record's
// time_position and last_contact; the API reports batch-level time only.
func NormalizeAirplanesLive(list []LiveAircraft, epoch int64) []FlightRecord {
	records := make([]FlightRecord, 0, len(list))
	for _, a := range list {
		if a.Lat == nil || a.Lon == nil {
			continue
		}

		rec := FlightRecord{
			ICAO24:       a.Hex,
			Longitude:    a.Lon,
			Latitude:     a.Lat,
			TrueTrack:    a.Track,
			TimePosition: &epoch,
			LastContact:  &epoch,
		}
		if a.Flight != nil {
			rec.Callsign = strings.TrimSpace(*a.Flight)
		}
		rec.OriginCountry = a.Country
		if rec.OriginCountry == "" {
			rec.OriginCountry = a.Reg
		}

		baroFt, baroGround := altitudeFeet(a.AltBaro)
		geomFt, geomGround := altitudeFeet(a.AltGeom)
		if baroFt != nil {
			rec.BaroAltitude = ptr(units.FeetToMeters(*baroFt))
		} else if geomFt != nil {
			rec.BaroAltitude = ptr(units.FeetToMeters(*geomFt))
		}
		if geomFt != nil {
			rec.GeoAltitude = ptr(units.FeetToMeters(*geomFt))
		}

		rec.OnGround = (a.Gs != nil && *a.Gs < groundSpeedThresholdKt) || baroGround || geomGround
		if a.Gs != nil {
			rec.Velocity = ptr(units.KnotsToMS(*a.Gs))
		}
		if a.BaroRate != nil {
			rec.VerticalRate = ptr(units.FeetPerMinuteToMS(*a.BaroRate))
		} else if a.GeomRate != nil {
			rec.VerticalRate = ptr(units.FeetPerMinuteToMS(*a.GeomRate))
		}
		if a.Squawk != "" {
			sq := a.Squawk
			rec.Squawk = &sq
		}
		records = append(records, rec)
	}
	return records
}

// altitudeFeet extracts an altitude in feet from a raw alt_baro/alt_geom
// value, which is either a number or the string "ground". The second return
// reports the "ground" case, where altitude is taken as 0 ft.
func altitudeFeet(v any) (*float64, bool) {
	switch val := v.(type) {
	case float64:
		return &val, false
	case string:
		if val == "ground" {
			zero := 0.0
			return &zero, true
		}
	}
	return nil, false
}

func ptr(v float64) *float64 { return &v }

func asFloat(v any) *float64 {
	if f, ok := v.(float64); ok {
		return &f
	}
	return nil
}

func asInt64(v any) *int64 {
	if f, ok := v.(float64); ok {
		i := int64(f)
		return &i
	}
	return nil
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
