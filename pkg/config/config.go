package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/skywatch/flightradar/pkg/geo"
)

// Config represents the complete application configuration.
// Configuration is loaded from a JSON file with environment overrides
// for credentials.
type Config struct {
	Server        ServerConfig        `json:"server"`
	Poll          PollConfig          `json:"poll"`
	OpenSky       OpenSkyConfig       `json:"opensky"`
	AirplanesLive AirplanesLiveConfig `json:"airplanes_live"`
	Routes        RoutesConfig        `json:"routes"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`
}

// PollConfig contains the polling controller's startup settings.
type PollConfig struct {
	// Mode is the geographic scope: "world", "viewport" or "custom"
	Mode string `json:"mode"`

	// Provider selects the data source: "opensky" or "airplaneslive"
	Provider string `json:"provider"`

	// DemoMode serves generated data instead of calling any provider
	DemoMode bool `json:"demo_mode"`

	// IntervalSeconds is the initial polling cadence. The controller
	// adapts it at runtime from provider responses.
	IntervalSeconds int `json:"interval_seconds"`

	// DemoCount is the number of generated aircraft in demo mode
	DemoCount int `json:"demo_count"`

	// BBox is the fetch region for viewport and custom modes
	BBox geo.BoundingBox `json:"bbox"`
}

// Interval returns the configured cadence as a duration.
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// EffectiveBBox returns the configured region, or the whole-world box
// when none is set.
func (p PollConfig) EffectiveBBox() geo.BoundingBox {
	if p.BBox.LatSpan() == 0 || p.BBox.LonSpan() == 0 {
		return geo.World
	}
	return p.BBox.Clamp()
}

// OpenSkyConfig contains OpenSky Network API settings.
type OpenSkyConfig struct {
	// BaseURL is the API root (default: "https://opensky-network.org/api")
	BaseURL string `json:"base_url"`

	// Username for authenticated access. Anonymous access works but is
	// rate limited harder by the network.
	Username string `json:"username,omitempty"`

	// Password for authenticated access (prefer the environment override)
	Password string `json:"password,omitempty"`

	// TimeoutSeconds is the per-request HTTP timeout
	TimeoutSeconds int `json:"timeout_seconds"`
}

// AirplanesLiveConfig contains airplanes.live API settings.
type AirplanesLiveConfig struct {
	// BaseURL is the API root (default: "https://api.airplanes.live/v2")
	BaseURL string `json:"base_url"`

	// TimeoutSeconds is the per-request HTTP timeout
	TimeoutSeconds int `json:"timeout_seconds"`
}

// RoutesConfig contains route lookup (aviationstack) settings.
type RoutesConfig struct {
	// Enabled determines if route lookup should be offered
	Enabled bool `json:"enabled"`

	// BaseURL is the API root (default: "https://api.aviationstack.com/v1")
	BaseURL string `json:"base_url"`

	// APIKey authorizes route lookups (prefer the environment override)
	APIKey string `json:"api_key,omitempty"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	return &cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Poll: PollConfig{
			Mode:            "world",
			Provider:        "opensky",
			DemoMode:        false,
			IntervalSeconds: 15,
			DemoCount:       60,
			BBox:            geo.World,
		},
		OpenSky: OpenSkyConfig{
			BaseURL:        "https://opensky-network.org/api",
			TimeoutSeconds: 10,
		},
		AirplanesLive: AirplanesLiveConfig{
			BaseURL:        "https://api.airplanes.live/v2",
			TimeoutSeconds: 10,
		},
		Routes: RoutesConfig{
			Enabled: false,
			BaseURL: "https://api.aviationstack.com/v1",
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides.
// This allows credentials to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("FLIGHTRADAR_PORT"); port != "" {
		c.Server.Port = port
	}
	if host := os.Getenv("FLIGHTRADAR_HOST"); host != "" {
		c.Server.Host = host
	}
	if user := os.Getenv("FLIGHTRADAR_OPENSKY_USERNAME"); user != "" {
		c.OpenSky.Username = user
	}
	if pass := os.Getenv("FLIGHTRADAR_OPENSKY_PASSWORD"); pass != "" {
		c.OpenSky.Password = pass
	}
	if key := os.Getenv("FLIGHTRADAR_ROUTES_API_KEY"); key != "" {
		c.Routes.APIKey = key
		c.Routes.Enabled = true
	}
}
