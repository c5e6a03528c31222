// Flight radar web server
// Runs the polling controller and exposes REST API + WebSocket endpoints
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/skywatch/flightradar/pkg/airplaneslive"
	"github.com/skywatch/flightradar/pkg/config"
	"github.com/skywatch/flightradar/pkg/demo"
	"github.com/skywatch/flightradar/pkg/flight"
	"github.com/skywatch/flightradar/pkg/geo"
	"github.com/skywatch/flightradar/pkg/opensky"
	"github.com/skywatch/flightradar/pkg/poller"
	"github.com/skywatch/flightradar/pkg/routes"
)

var (
	configPath = flag.String("config", "configs/config.json", "Path to configuration file")
	port       = flag.String("port", "", "HTTP server port (overrides config)")
)

// Server holds the HTTP server and its dependencies
type Server struct {
	router     *chi.Mux
	ctrl       *poller.Controller
	routes     *routes.Client
	cfg        *config.Config
	configPath string
	upgrader   websocket.Upgrader
}

func main() {
	flag.Parse()

	log.Println("🚀 Starting flight radar web server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	ctrl := buildController(cfg)
	routeClient := routes.NewClient(routes.Config{
		APIKey:  cfg.Routes.APIKey,
		BaseURL: cfg.Routes.BaseURL,
	})
	if routeClient.Configured() {
		log.Println("🧭 Route lookup enabled")
	}

	srv := &Server{
		router:     chi.NewRouter(),
		ctrl:       ctrl,
		routes:     routeClient,
		cfg:        cfg,
		configPath: *configPath,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	srv.setupRoutes()

	ctx, cancelPolling := context.WithCancel(context.Background())
	ctrl.Start(ctx)
	log.Printf("📡 Polling provider %q every %s", cfg.Poll.Provider, cfg.Poll.Interval())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://localhost:%s", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n👋 Shutting down server...")
	cancelPolling()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped")
}

// buildController assembles the polling controller from configuration.
func buildController(cfg *config.Config) *poller.Controller {
	openskyClient := opensky.NewClient(opensky.Config{
		BaseURL:  cfg.OpenSky.BaseURL,
		Username: cfg.OpenSky.Username,
		Password: cfg.OpenSky.Password,
		Timeout:  time.Duration(cfg.OpenSky.TimeoutSeconds) * time.Second,
	})
	airplanesClient := airplaneslive.NewClient(airplaneslive.Config{
		BaseURL: cfg.AirplanesLive.BaseURL,
		Timeout: time.Duration(cfg.AirplanesLive.TimeoutSeconds) * time.Second,
	})

	settings := poller.Settings{
		Mode:     flight.Mode(cfg.Poll.Mode),
		Provider: cfg.Poll.Provider,
		DemoMode: cfg.Poll.DemoMode,
		Interval: cfg.Poll.Interval(),
		BBox:     cfg.Poll.EffectiveBBox(),
	}

	return poller.New(settings, demo.NewGenerator(cfg.Poll.DemoCount), openskyClient, airplanesClient)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Compress(5))

	// CORS for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/flights", s.handleGetFlights)
		r.Get("/status", s.handleGetStatus)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)

		r.Post("/refresh", s.handleRefresh)

		r.Get("/routes/{callsign}", s.handleGetRoute)

		r.Get("/ws", s.handleWebSocket)
	})
}

// handleGetFlights returns the latest published batch.
func (s *Server) handleGetFlights(w http.ResponseWriter, r *http.Request) {
	latest, status := s.ctrl.Latest()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"flights":    latest.Flights,
		"count":      len(latest.Flights),
		"raw_count":  latest.RawCount,
		"epoch":      latest.Epoch,
		"error":      latest.Err,
		"fetched_at": status.FetchedAt,
	})
}

// handleGetStatus returns the controller's fetch state and settings.
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	latest, status := s.ctrl.Latest()
	settings := s.ctrl.Settings()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"loading":          status.Loading,
		"error":            status.Err,
		"fetched_at":       status.FetchedAt,
		"count":            len(latest.Flights),
		"provider":         settings.Provider,
		"mode":             settings.Mode,
		"demo_mode":        settings.DemoMode,
		"interval_seconds": int(settings.Interval / time.Second),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings := s.ctrl.Settings()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"mode":             settings.Mode,
		"provider":         settings.Provider,
		"demo_mode":        settings.DemoMode,
		"interval_seconds": int(settings.Interval / time.Second),
		"bbox":             settings.BBox,
	})
}

// handleUpdateSettings applies partial settings changes to the running
// controller and persists them to the config file.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode            *string          `json:"mode"`
		Provider        *string          `json:"provider"`
		DemoMode        *bool            `json:"demo_mode"`
		IntervalSeconds *int             `json:"interval_seconds"`
		BBox            *geo.BoundingBox `json:"bbox"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Mode != nil {
		mode := flight.Mode(*req.Mode)
		switch mode {
		case flight.ModeWorld, flight.ModeViewport, flight.ModeCustom:
		default:
			http.Error(w, fmt.Sprintf("Unknown mode %q", *req.Mode), http.StatusBadRequest)
			return
		}
		s.ctrl.SetMode(mode)
		s.cfg.Poll.Mode = *req.Mode
	}
	if req.Provider != nil {
		s.ctrl.SetProvider(*req.Provider)
		s.cfg.Poll.Provider = *req.Provider
	}
	if req.DemoMode != nil {
		s.ctrl.SetDemoMode(*req.DemoMode)
		s.cfg.Poll.DemoMode = *req.DemoMode
	}
	if req.IntervalSeconds != nil {
		if *req.IntervalSeconds <= 0 {
			http.Error(w, "Interval must be positive", http.StatusBadRequest)
			return
		}
		s.ctrl.SetInterval(time.Duration(*req.IntervalSeconds) * time.Second)
		s.cfg.Poll.IntervalSeconds = *req.IntervalSeconds
	}
	if req.BBox != nil {
		s.ctrl.SetBBox(*req.BBox)
		s.cfg.Poll.BBox = req.BBox.Clamp()
	}

	if err := s.cfg.Save(s.configPath); err != nil {
		log.Printf("Error persisting settings: %v", err)
	}

	s.handleGetSettings(w, r)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Refresh()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// handleGetRoute resolves the itinerary for a callsign.
func (s *Server) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	callsign := chi.URLParam(r, "callsign")

	route, err := s.routes.Lookup(r.Context(), callsign)
	switch {
	case errors.Is(err, routes.ErrNotConfigured):
		http.Error(w, "Route lookup not configured", http.StatusServiceUnavailable)
		return
	case errors.Is(err, routes.ErrNotFound):
		http.Error(w, "Route not found", http.StatusNotFound)
		return
	case err != nil:
		log.Printf("Error looking up route for %s: %v", callsign, err)
		http.Error(w, "Route lookup failed", http.StatusBadGateway)
		return
	}

	respondJSON(w, http.StatusOK, route)
}

// handleWebSocket streams published ticks to the client. The latest
// snapshot is sent immediately on connect.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub, unsub := s.ctrl.Subscribe()
	defer unsub()

	// Reader pump: we never expect client messages, but reading is
	// required to notice the peer closing the connection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	latest, _ := s.ctrl.Latest()
	if err := conn.WriteJSON(latest); err != nil {
		return
	}

	for {
		select {
		case res := <-sub:
			if err := conn.WriteJSON(res); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
