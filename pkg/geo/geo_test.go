package geo

import (
	"math"
	"testing"
)

// TestSplitIntoTilesLargeBox verifies a 60°x60° box splits into a 3x3 grid.
func TestSplitIntoTilesLargeBox(t *testing.T) {
	bbox := BoundingBox{MinLat: 0, MinLon: 0, MaxLat: 60, MaxLon: 60}
	tiles := SplitIntoTiles(bbox, 20, 12)

	if len(tiles) != 9 {
		t.Fatalf("Expected 9 tiles for 60x60 box, got %d", len(tiles))
	}

	// Every tile must fit within the span limit and inside the original box.
	for i, tile := range tiles {
		if tile.LatSpan() > 20+1e-9 || tile.LonSpan() > 20+1e-9 {
			t.Errorf("Tile %d exceeds 20 degree span: %+v", i, tile)
		}
		if tile.MinLat < bbox.MinLat || tile.MaxLat > bbox.MaxLat ||
			tile.MinLon < bbox.MinLon || tile.MaxLon > bbox.MaxLon {
			t.Errorf("Tile %d extends outside original box: %+v", i, tile)
		}
	}

	// Tiles must collectively cover the box with no gaps: the sum of tile
	// areas equals the original area when nothing was truncated.
	var area float64
	for _, tile := range tiles {
		area += tile.LatSpan() * tile.LonSpan()
	}
	if math.Abs(area-3600) > 1e-6 {
		t.Errorf("Expected tile union area 3600, got %f", area)
	}
}

// TestSplitIntoTilesSmallBox verifies a box within the threshold is returned unchanged.
func TestSplitIntoTilesSmallBox(t *testing.T) {
	bbox := BoundingBox{MinLat: 40, MinLon: -80, MaxLat: 50, MaxLon: -70}
	tiles := SplitIntoTiles(bbox, 20, 12)

	if len(tiles) != 1 {
		t.Fatalf("Expected 1 tile for 10x10 box, got %d", len(tiles))
	}
	if tiles[0] != bbox {
		t.Errorf("Expected tile equal to input box, got %+v", tiles[0])
	}
}

// TestSplitIntoTilesRasterOrder verifies the fixed iteration order:
// latitude ascending outer, longitude ascending inner.
func TestSplitIntoTilesRasterOrder(t *testing.T) {
	bbox := BoundingBox{MinLat: 0, MinLon: 0, MaxLat: 40, MaxLon: 40}
	tiles := SplitIntoTiles(bbox, 20, 12)

	if len(tiles) != 4 {
		t.Fatalf("Expected 4 tiles, got %d", len(tiles))
	}
	expected := []BoundingBox{
		{MinLat: 0, MinLon: 0, MaxLat: 20, MaxLon: 20},
		{MinLat: 0, MinLon: 20, MaxLat: 20, MaxLon: 40},
		{MinLat: 20, MinLon: 0, MaxLat: 40, MaxLon: 20},
		{MinLat: 20, MinLon: 20, MaxLat: 40, MaxLon: 40},
	}
	for i, want := range expected {
		if tiles[i] != want {
			t.Errorf("Tile %d: expected %+v, got %+v", i, want, tiles[i])
		}
	}
}

// TestSplitIntoTilesTruncation verifies production stops at maxTiles.
func TestSplitIntoTilesTruncation(t *testing.T) {
	// 160x340 degrees at 20 degree tiles would be 8x17 = 136 tiles.
	tiles := SplitIntoTiles(World, 20, 12)
	if len(tiles) != 12 {
		t.Errorf("Expected truncation at 12 tiles, got %d", len(tiles))
	}
}

// TestSplitIntoTilesDeterministic verifies identical input yields identical output.
func TestSplitIntoTilesDeterministic(t *testing.T) {
	bbox := BoundingBox{MinLat: -30, MinLon: -50, MaxLat: 30, MaxLon: 50}
	a := SplitIntoTiles(bbox, 20, 12)
	b := SplitIntoTiles(bbox, 20, 12)
	if len(a) != len(b) {
		t.Fatalf("Tile counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Tile %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// TestSplitIntoTilesDegenerateBox verifies a zero-area box still yields one tile.
func TestSplitIntoTilesDegenerateBox(t *testing.T) {
	bbox := BoundingBox{MinLat: 10, MinLon: 10, MaxLat: 10, MaxLon: 10}
	tiles := SplitIntoTiles(bbox, 20, 12)
	if len(tiles) != 1 {
		t.Errorf("Expected 1 tile for degenerate box, got %d", len(tiles))
	}
}

// TestClamp verifies defensive normalization of malformed boxes.
func TestClamp(t *testing.T) {
	t.Run("Swaps inverted bounds", func(t *testing.T) {
		b := BoundingBox{MinLat: 50, MinLon: 30, MaxLat: 40, MaxLon: 20}.Clamp()
		if b.MinLat != 40 || b.MaxLat != 50 || b.MinLon != 20 || b.MaxLon != 30 {
			t.Errorf("Unexpected clamped box: %+v", b)
		}
	})

	t.Run("Clamps out-of-range coordinates", func(t *testing.T) {
		b := BoundingBox{MinLat: -120, MinLon: -200, MaxLat: 95, MaxLon: 210}.Clamp()
		if b.MinLat != -90 || b.MaxLat != 90 || b.MinLon != -180 || b.MaxLon != 180 {
			t.Errorf("Unexpected clamped box: %+v", b)
		}
	})
}

// TestContains verifies edge-inclusive point membership.
func TestContains(t *testing.T) {
	bbox := BoundingBox{MinLat: 0, MinLon: 0, MaxLat: 10, MaxLon: 10}
	if !bbox.Contains(5, 5) {
		t.Error("Expected interior point to be contained")
	}
	if !bbox.Contains(0, 10) {
		t.Error("Expected edge point to be contained")
	}
	if bbox.Contains(-1, 5) || bbox.Contains(5, 11) {
		t.Error("Expected outside points to be excluded")
	}
}
