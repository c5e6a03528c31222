// Package geo provides the geographic primitives used by the flight data
// pipeline: WGS84 bounding boxes and the tiling of oversized regions into
// provider-sized sub-requests.
package geo

// BoundingBox is a rectangular geographic region in decimal degrees.
// MinLat < MaxLat and MinLon < MaxLon are expected but not required;
// malformed boxes are normalized by Clamp before use.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// World is the default whole-planet region. Latitude is capped at ±85°
// to stay inside the web-mercator range the map collaborator renders.
var World = BoundingBox{MinLat: -85, MinLon: -180, MaxLat: 85, MaxLon: 180}

// LatSpan returns the latitude extent of the box in degrees.
func (b BoundingBox) LatSpan() float64 { return b.MaxLat - b.MinLat }

// LonSpan returns the longitude extent of the box in degrees.
func (b BoundingBox) LonSpan() float64 { return b.MaxLon - b.MinLon }

// Contains reports whether the point lies inside the box (edges inclusive).
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Clamp normalizes a possibly-malformed box: coordinates are clamped to the
// valid WGS84 range and inverted min/max pairs are swapped. The result is
// always a usable (possibly zero-area) box.
func (b BoundingBox) Clamp() BoundingBox {
	if b.MinLat > b.MaxLat {
		b.MinLat, b.MaxLat = b.MaxLat, b.MinLat
	}
	if b.MinLon > b.MaxLon {
		b.MinLon, b.MaxLon = b.MaxLon, b.MinLon
	}
	b.MinLat = clampTo(b.MinLat, -90, 90)
	b.MaxLat = clampTo(b.MaxLat, -90, 90)
	b.MinLon = clampTo(b.MinLon, -180, 180)
	b.MaxLon = clampTo(b.MaxLon, -180, 180)
	return b
}

func clampTo(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SplitIntoTiles splits a bounding box into sub-tiles of at most
// maxTileSpanDeg degrees per axis, walking the box in raster order
// (latitude ascending in the outer loop, longitude ascending in the inner
// loop) and clipping each tile to the original edges.
//
// A box already within maxTileSpanDeg on both axes yields a single tile
// equal to the input. Tile production stops once maxTiles tiles exist;
// coverage of a pathologically large region is silently truncated.
// The output is fully deterministic for a given input.
func SplitIntoTiles(bbox BoundingBox, maxTileSpanDeg float64, maxTiles int) []BoundingBox {
	bbox = bbox.Clamp()

	latSpan := bbox.LatSpan()
	if latSpan < 0.0001 {
		latSpan = 0.0001
	}
	lonSpan := bbox.LonSpan()
	if lonSpan < 0.0001 {
		lonSpan = 0.0001
	}

	latStep := maxTileSpanDeg
	if latSpan < latStep {
		latStep = latSpan
	}
	lonStep := maxTileSpanDeg
	if lonSpan < lonStep {
		lonStep = lonSpan
	}

	tiles := make([]BoundingBox, 0, maxTiles)
	for lat := bbox.MinLat; lat < bbox.MaxLat && len(tiles) < maxTiles; lat += latStep {
		lat2 := lat + latStep
		if lat2 > bbox.MaxLat {
			lat2 = bbox.MaxLat
		}
		for lon := bbox.MinLon; lon < bbox.MaxLon && len(tiles) < maxTiles; lon += lonStep {
			lon2 := lon + lonStep
			if lon2 > bbox.MaxLon {
				lon2 = bbox.MaxLon
			}
			tiles = append(tiles, BoundingBox{MinLat: lat, MinLon: lon, MaxLat: lat2, MaxLon: lon2})
		}
	}
	if len(tiles) == 0 {
		tiles = append(tiles, bbox)
	}
	return tiles
}
