// Package units provides aviation unit conversions.
//
// Flight data providers mix units freely: OpenSky reports metric values
// (meters, m/s) while airplanes.live reports imperial ones (feet, knots,
// feet/minute). Everything internal to this application is metric; these
// helpers convert at the provider boundary and back again for display.
package units

import "math"

// Conversion factors.
const (
	metersPerFoot    = 0.3048
	feetPerMeter     = 3.28084
	msPerKnot        = 0.514444
	kmhPerKnot       = 1.852
	msPerFootPerMin  = 0.00508
	kmhPerMeterPerSec = 3.6
)

// FeetToMeters converts an altitude in feet to meters.
func FeetToMeters(ft float64) float64 {
	return ft * metersPerFoot
}

// MetersToFeet converts an altitude in meters to feet.
func MetersToFeet(m float64) float64 {
	return m * feetPerMeter
}

// KnotsToMS converts a ground speed in knots to meters per second.
func KnotsToMS(kt float64) float64 {
	return kt * msPerKnot
}

// KnotsToKmh converts a ground speed in knots to kilometers per hour.
func KnotsToKmh(kt float64) float64 {
	return kt * kmhPerKnot
}

// MSToKmh converts a speed in meters per second to kilometers per hour.
func MSToKmh(ms float64) float64 {
	return ms * kmhPerMeterPerSec
}

// FeetPerMinuteToMS converts a vertical rate in feet/minute to meters/second.
func FeetPerMinuteToMS(fpm float64) float64 {
	return fpm * msPerFootPerMin
}

// cardinal directions on a 16-wind compass rose, clockwise from north.
var cardinals = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CardinalDirection returns the 16-wind compass label for a true track in
// degrees. The input is normalized, so values outside [0,360) are accepted.
func CardinalDirection(degrees float64) string {
	deg := math.Mod(degrees, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/22.5)) % 16
	return cardinals[idx]
}
