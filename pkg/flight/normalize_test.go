package flight

import (
	"math"
	"testing"
)

func strPtr(s string) *string    { return &s }
func floatPtr(f float64) *float64 { return &f }

// openSkyState builds a full 17-element state array with a valid position.
func openSkyState(icao string, lat, lon float64) []any {
	return []any{
		icao, "UAL123  ", "United States", 1700000000.0, 1700000010.0,
		lon, lat, 10668.0, false, 250.0,
		90.0, 2.5, nil, 10700.0, "7421", false, 0.0,
	}
}

// TestNormalizeOpenSky verifies the positional index mapping.
func TestNormalizeOpenSky(t *testing.T) {
	recs := NormalizeOpenSky([][]any{openSkyState("a12345", 35.5, -80.5)})
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}

	rec := recs[0]
	if rec.ICAO24 != "a12345" {
		t.Errorf("Expected icao24 a12345, got %s", rec.ICAO24)
	}
	if rec.Callsign != "UAL123" {
		t.Errorf("Expected trimmed callsign UAL123, got %q", rec.Callsign)
	}
	if rec.OriginCountry != "United States" {
		t.Errorf("Expected origin country, got %s", rec.OriginCountry)
	}
	if rec.Latitude == nil || *rec.Latitude != 35.5 {
		t.Errorf("Expected latitude 35.5, got %v", rec.Latitude)
	}
	if rec.Longitude == nil || *rec.Longitude != -80.5 {
		t.Errorf("Expected longitude -80.5, got %v", rec.Longitude)
	}
	if rec.BaroAltitude == nil || *rec.BaroAltitude != 10668.0 {
		t.Errorf("Expected baro altitude 10668, got %v", rec.BaroAltitude)
	}
	if rec.GeoAltitude == nil || *rec.GeoAltitude != 10700.0 {
		t.Errorf("Expected geo altitude 10700 (index 13, skipping sensors), got %v", rec.GeoAltitude)
	}
	if rec.TimePosition == nil || *rec.TimePosition != 1700000000 {
		t.Errorf("Expected time position 1700000000, got %v", rec.TimePosition)
	}
	if rec.Squawk == nil || *rec.Squawk != "7421" {
		t.Errorf("Expected squawk 7421, got %v", rec.Squawk)
	}
	if rec.OnGround || rec.Spi {
		t.Error("Expected on_ground and spi false")
	}
	if rec.PositionSource != 0 {
		t.Errorf("Expected position source 0, got %d", rec.PositionSource)
	}
}

// TestNormalizeOpenSkyDropsIncomplete verifies the drop rules: short arrays
// and missing positions are excluded, and every surviving record has a position.
func TestNormalizeOpenSkyDropsIncomplete(t *testing.T) {
	noLat := openSkyState("a22222", 0, -80)
	noLat[6] = nil
	noLon := openSkyState("a33333", 35, 0)
	noLon[5] = nil

	input := [][]any{
		openSkyState("a11111", 35.0, -80.0),
		{"short", "row"},
		noLat,
		noLon,
		openSkyState("a44444", 36.0, -81.0),
	}

	recs := NormalizeOpenSky(input)
	if len(recs) > len(input) {
		t.Fatalf("Output length %d exceeds input length %d", len(recs), len(input))
	}
	if len(recs) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.Latitude == nil || rec.Longitude == nil {
			t.Errorf("Record %s emitted without a position", rec.ICAO24)
		}
	}
}

// TestNormalizeOpenSkyMalformedFields verifies a record with valid position
// but garbage elsewhere degrades to nil fields instead of being dropped.
func TestNormalizeOpenSkyMalformedFields(t *testing.T) {
	s := openSkyState("a55555", 35.0, -80.0)
	s[7] = "not-a-number"
	s[14] = 1234.0

	recs := NormalizeOpenSky([][]any{s})
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	if recs[0].BaroAltitude != nil {
		t.Errorf("Expected nil baro altitude for malformed field, got %v", recs[0].BaroAltitude)
	}
	if recs[0].Squawk != nil {
		t.Errorf("Expected nil squawk for non-string field, got %v", recs[0].Squawk)
	}
}

// TestNormalizeAirplanesLive verifies unit conversion and the ground heuristic.
func TestNormalizeAirplanesLive(t *testing.T) {
	list := []LiveAircraft{
		{
			Hex:      "abc123",
			Flight:   strPtr("DAL456 "),
			Lat:      floatPtr(40.0),
			Lon:      floatPtr(-75.0),
			AltBaro:  30000.0,
			AltGeom:  30500.0,
			Gs:       floatPtr(450.0),
			Track:    floatPtr(270.0),
			BaroRate: floatPtr(-1000.0),
			Squawk:   "2200",
			Reg:      "N123DL",
		},
	}

	recs := NormalizeAirplanesLive(list, 1700000000)
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}

	rec := recs[0]
	if rec.Callsign != "DAL456" {
		t.Errorf("Expected trimmed callsign DAL456, got %q", rec.Callsign)
	}
	if rec.OriginCountry != "N123DL" {
		t.Errorf("Expected registration fallback for origin country, got %s", rec.OriginCountry)
	}
	if rec.BaroAltitude == nil || math.Abs(*rec.BaroAltitude-9144.0) > 1e-6 {
		t.Errorf("Expected 30000ft = 9144m baro altitude, got %v", rec.BaroAltitude)
	}
	if rec.GeoAltitude == nil || math.Abs(*rec.GeoAltitude-9296.4) > 1e-6 {
		t.Errorf("Expected 30500ft = 9296.4m geo altitude, got %v", rec.GeoAltitude)
	}
	if rec.Velocity == nil || math.Abs(*rec.Velocity-231.4998) > 1e-6 {
		t.Errorf("Expected 450kt = 231.4998m/s, got %v", rec.Velocity)
	}
	if rec.VerticalRate == nil || math.Abs(*rec.VerticalRate+5.08) > 1e-6 {
		t.Errorf("Expected -1000fpm = -5.08m/s, got %v", rec.VerticalRate)
	}
	if rec.OnGround {
		t.Error("Expected airborne at 450kt")
	}
	if rec.TimePosition == nil || *rec.TimePosition != 1700000000 {
		t.Errorf("Expected epoch-stamped time position, got %v", rec.TimePosition)
	}
}

// TestNormalizeAirplanesLiveDropsMissingPosition verifies entries without
// lat or lon are excluded.
func TestNormalizeAirplanesLiveDropsMissingPosition(t *testing.T) {
	list := []LiveAircraft{
		{Hex: "a11111", Lat: floatPtr(35.0), Lon: floatPtr(-80.0)},
		{Hex: "a22222", Lat: nil, Lon: floatPtr(-80.0)},
		{Hex: "a33333", Lat: floatPtr(35.0), Lon: nil},
		{Hex: "a44444", Lat: floatPtr(36.0), Lon: floatPtr(-81.0)},
	}

	recs := NormalizeAirplanesLive(list, 1700000000)
	if len(recs) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recs))
	}
	if recs[0].ICAO24 != "a11111" || recs[1].ICAO24 != "a44444" {
		t.Errorf("Unexpected surviving records: %s, %s", recs[0].ICAO24, recs[1].ICAO24)
	}
}

// TestNormalizeAirplanesLiveGroundHeuristics covers the gs<30 rule and the
// "ground" altitude string.
func TestNormalizeAirplanesLiveGroundHeuristics(t *testing.T) {
	t.Run("Slow ground speed means on ground", func(t *testing.T) {
		list := []LiveAircraft{
			{Hex: "slow", Lat: floatPtr(35.0), Lon: floatPtr(-80.0), Gs: floatPtr(12.0), AltBaro: 100.0},
		}
		recs := NormalizeAirplanesLive(list, 0)
		if !recs[0].OnGround {
			t.Error("Expected on ground at 12kt")
		}
	})

	t.Run("Ground altitude string forces on ground at 0ft", func(t *testing.T) {
		list := []LiveAircraft{
			{Hex: "gnd", Lat: floatPtr(35.0), Lon: floatPtr(-80.0), AltBaro: "ground", Gs: floatPtr(120.0)},
		}
		recs := NormalizeAirplanesLive(list, 0)
		if !recs[0].OnGround {
			t.Error("Expected \"ground\" altitude to force on-ground")
		}
		if recs[0].BaroAltitude == nil || *recs[0].BaroAltitude != 0 {
			t.Errorf("Expected 0m altitude for \"ground\", got %v", recs[0].BaroAltitude)
		}
	})

	t.Run("Geom rate fallback", func(t *testing.T) {
		list := []LiveAircraft{
			{Hex: "geo", Lat: floatPtr(35.0), Lon: floatPtr(-80.0), GeomRate: floatPtr(500.0)},
		}
		recs := NormalizeAirplanesLive(list, 0)
		if recs[0].VerticalRate == nil || math.Abs(*recs[0].VerticalRate-2.54) > 1e-6 {
			t.Errorf("Expected 500fpm = 2.54m/s from geom_rate, got %v", recs[0].VerticalRate)
		}
	})
}
