// Flight radar terminal UI
// Live aircraft table fed by the polling controller
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skywatch/flightradar/pkg/airplaneslive"
	"github.com/skywatch/flightradar/pkg/config"
	"github.com/skywatch/flightradar/pkg/demo"
	"github.com/skywatch/flightradar/pkg/flight"
	"github.com/skywatch/flightradar/pkg/opensky"
	"github.com/skywatch/flightradar/pkg/poller"
	"github.com/skywatch/flightradar/pkg/units"
)

const tableRows = 15

var providerCycle = []string{"opensky", "airplaneslive"}

type model struct {
	ctrl     *poller.Controller
	sub      <-chan flight.TickResult
	latest   flight.TickResult
	status   poller.Status
	selected int
}

type tickResultMsg flight.TickResult

// waitForTick blocks on the subscription channel and hands the next
// published batch to the update loop.
func waitForTick(sub <-chan flight.TickResult) tea.Cmd {
	return func() tea.Msg {
		return tickResultMsg(<-sub)
	}
}

func (m model) Init() tea.Cmd {
	return waitForTick(m.sub)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.ctrl.Refresh()
		case "d":
			m.ctrl.SetDemoMode(!m.ctrl.Settings().DemoMode)
		case "p":
			m.ctrl.SetProvider(nextProvider(m.ctrl.Settings().Provider))
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.latest.Flights)-1 {
				m.selected++
			}
		}

	case tickResultMsg:
		m.latest = flight.TickResult(msg)
		_, m.status = m.ctrl.Latest()
		if m.selected >= len(m.latest.Flights) {
			m.selected = 0
		}
		return m, waitForTick(m.sub)
	}

	return m, nil
}

func nextProvider(current string) string {
	for i, name := range providerCycle {
		if name == current {
			return providerCycle[(i+1)%len(providerCycle)]
		}
	}
	return providerCycle[0]
}

func (m model) View() string {
	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	s.WriteString(titleStyle.Render("FLIGHT RADAR"))
	s.WriteString("\n\n")

	s.WriteString(m.renderStatus())
	s.WriteString("\n\n")

	s.WriteString(m.renderTable())
	s.WriteString("\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	s.WriteString(helpStyle.Render("↑/↓: Select  R: Refresh  D: Demo  P: Provider  Q: Quit"))
	s.WriteString("\n")

	return s.String()
}

func (m model) renderStatus() string {
	settings := m.ctrl.Settings()

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	source := settings.Provider
	if settings.DemoMode {
		source = "demo"
	}

	var s strings.Builder
	s.WriteString(labelStyle.Render("Source: "))
	s.WriteString(valueStyle.Render(source))
	s.WriteString(labelStyle.Render("  Mode: "))
	s.WriteString(valueStyle.Render(string(settings.Mode)))
	s.WriteString(labelStyle.Render("  Interval: "))
	s.WriteString(valueStyle.Render(settings.Interval.String()))
	s.WriteString(labelStyle.Render("  Aircraft: "))
	s.WriteString(valueStyle.Render(fmt.Sprintf("%d", len(m.latest.Flights))))

	if !m.status.FetchedAt.IsZero() {
		s.WriteString(labelStyle.Render("  Updated: "))
		s.WriteString(valueStyle.Render(m.status.FetchedAt.Format("15:04:05")))
	}
	if m.status.Loading {
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render("  ⟳ fetching"))
	}
	if m.status.Err != "" {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		s.WriteString("\n")
		s.WriteString(errStyle.Render("Error: " + m.status.Err))
	}

	return s.String()
}

func (m model) renderTable() string {
	var s strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	s.WriteString(headerStyle.Render(fmt.Sprintf("  %-9s %-7s %-14s %9s %10s %8s %8s %6s %8s",
		"CALLSIGN", "ICAO24", "COUNTRY", "LAT", "LON", "ALT m", "SPD km/h", "HDG", "V/S m/s")))
	s.WriteString("\n")

	if len(m.latest.Flights) == 0 {
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("  No aircraft in view"))
		return s.String()
	}

	// Window the table around the selection.
	start := 0
	if m.selected > tableRows/2 && len(m.latest.Flights) > tableRows {
		start = m.selected - tableRows/2
	}
	end := start + tableRows
	if end > len(m.latest.Flights) {
		end = len(m.latest.Flights)
	}

	for i := start; i < end; i++ {
		rec := m.latest.Flights[i]

		prefix := "  "
		if i == m.selected {
			prefix = "→ "
		}

		callsign := rec.Callsign
		if callsign == "" {
			callsign = "--------"
		}

		line := fmt.Sprintf("%s%-9s %-7s %-14s %9s %10s %8s %8s %6s %8s",
			prefix,
			callsign,
			rec.ICAO24,
			truncate(rec.OriginCountry, 14),
			fmtCoord(rec.Latitude),
			fmtCoord(rec.Longitude),
			fmtAltitude(rec),
			fmtSpeed(rec.Velocity),
			fmtHeading(rec.TrueTrack),
			fmtVertical(rec.VerticalRate),
		)

		if rec.OnGround {
			line += "  GND"
		}

		if i == m.selected {
			line = lipgloss.NewStyle().Background(lipgloss.Color("237")).Render(line)
		}

		s.WriteString(line)
		s.WriteString("\n")
	}

	if end < len(m.latest.Flights) {
		moreStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		s.WriteString(moreStyle.Render(fmt.Sprintf("  … %d more", len(m.latest.Flights)-end)))
		s.WriteString("\n")
	}

	return s.String()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-1] + "…"
	}
	return s
}

func fmtCoord(v *float64) string {
	if v == nil {
		return "---"
	}
	return fmt.Sprintf("%.3f", *v)
}

func fmtAltitude(rec flight.FlightRecord) string {
	alt := rec.BaroAltitude
	if alt == nil {
		alt = rec.GeoAltitude
	}
	if alt == nil {
		return "---"
	}
	return fmt.Sprintf("%.0f", *alt)
}

func fmtSpeed(v *float64) string {
	if v == nil {
		return "---"
	}
	return fmt.Sprintf("%.0f", units.MSToKmh(*v))
}

func fmtHeading(v *float64) string {
	if v == nil {
		return "---"
	}
	return fmt.Sprintf("%.0f %s", *v, units.CardinalDirection(*v))
}

func fmtVertical(v *float64) string {
	if v == nil {
		return "---"
	}
	return fmt.Sprintf("%+.1f", *v)
}

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

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

	ctrl := poller.New(poller.Settings{
		Mode:     flight.Mode(cfg.Poll.Mode),
		Provider: cfg.Poll.Provider,
		DemoMode: cfg.Poll.DemoMode,
		Interval: cfg.Poll.Interval(),
		BBox:     cfg.Poll.EffectiveBBox(),
	}, demo.NewGenerator(cfg.Poll.DemoCount), openskyClient, airplanesClient)

	sub, unsub := ctrl.Subscribe()
	defer unsub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl.Start(ctx)

	m := model{
		ctrl: ctrl,
		sub:  sub,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
