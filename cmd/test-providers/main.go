package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/skywatch/flightradar/pkg/airplaneslive"
	"github.com/skywatch/flightradar/pkg/config"
	"github.com/skywatch/flightradar/pkg/demo"
	"github.com/skywatch/flightradar/pkg/flight"
	"github.com/skywatch/flightradar/pkg/geo"
	"github.com/skywatch/flightradar/pkg/opensky"
	"github.com/skywatch/flightradar/pkg/units"
)

// main is a test program to verify provider integration. It fetches one
// batch from each configured source over a region around Charlotte Douglas
// International Airport (CLT) and prints a sample of the normalized output.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	provider := flag.String("provider", "", "Only probe this provider (opensky, airplaneslive, demo)")
	flag.Parse()

	log.Println("Flight Data Provider Test")
	log.Println("Testing near Charlotte Douglas International Airport (CLT)")
	log.Println("=====================================")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Roughly 2 degrees around CLT: 35.2144° N, 80.9431° W
	bbox := geo.BoundingBox{MinLat: 34.2, MinLon: -82.0, MaxLat: 36.2, MaxLon: -80.0}
	q := flight.Query{Mode: flight.ModeCustom, BBox: bbox}

	providers := []flight.Provider{
		opensky.NewClient(opensky.Config{
			BaseURL:  cfg.OpenSky.BaseURL,
			Username: cfg.OpenSky.Username,
			Password: cfg.OpenSky.Password,
			Timeout:  time.Duration(cfg.OpenSky.TimeoutSeconds) * time.Second,
		}),
		airplaneslive.NewClient(airplaneslive.Config{
			BaseURL: cfg.AirplanesLive.BaseURL,
			Timeout: time.Duration(cfg.AirplanesLive.TimeoutSeconds) * time.Second,
		}),
		demo.NewGenerator(cfg.Poll.DemoCount),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, p := range providers {
		if *provider != "" && p.Name() != *provider {
			continue
		}
		probe(ctx, p, q)
	}

	log.Println("\n=====================================")
	log.Println("Test complete!")
}

func probe(ctx context.Context, p flight.Provider, q flight.Query) {
	log.Printf("\n--- %s ---", p.Name())

	start := time.Now()
	res, err := p.FetchBatch(ctx, q)
	if err != nil {
		log.Printf("  Fetch aborted: %v", err)
		return
	}

	log.Printf("  Fetched in %s", time.Since(start).Round(time.Millisecond))
	log.Printf("  Raw count:     %d", res.RawCount)
	log.Printf("  Normalized:    %d", len(res.Flights))
	log.Printf("  Epoch:         %d", res.Epoch)
	if res.Err != "" {
		log.Printf("  Provider error: %s", res.Err)
	}
	if res.NextInterval > 0 {
		log.Printf("  Suggested interval: %s", res.NextInterval)
	}

	for i, rec := range res.Flights {
		if i >= 5 {
			log.Printf("  ... and %d more aircraft", len(res.Flights)-5)
			break
		}

		callsign := rec.Callsign
		if callsign == "" {
			callsign = "--------"
		}

		log.Printf("  Aircraft #%d:", i+1)
		log.Printf("    ICAO:     %s", rec.ICAO24)
		log.Printf("    Callsign: %s", callsign)
		if rec.Latitude != nil && rec.Longitude != nil {
			log.Printf("    Position: %.4f°, %.4f°", *rec.Latitude, *rec.Longitude)
		}
		if rec.BaroAltitude != nil {
			log.Printf("    Altitude: %.0f m (%.0f ft)", *rec.BaroAltitude, units.MetersToFeet(*rec.BaroAltitude))
		}
		if rec.Velocity != nil {
			log.Printf("    Speed:    %.0f km/h", units.MSToKmh(*rec.Velocity))
		}
		if rec.TrueTrack != nil {
			log.Printf("    Track:    %.0f° (%s)", *rec.TrueTrack, units.CardinalDirection(*rec.TrueTrack))
		}
		if rec.OnGround {
			log.Printf("    Status:   ON GROUND")
		}
	}
}
