// Package poller implements the adaptive polling controller at the heart of
// the application: a single timer-driven loop that fetches from the active
// flight data provider (or the offline demo generator), publishes each
// tick's batch to subscribers, and adjusts its own cadence from the
// provider's response volume.
//
// Concurrency model: one run goroutine owns the settings and the timer.
// Configuration changes and refresh requests are funneled through channels
// into that goroutine, so there is never more than one active tick and no
// setter can race a fetch. In-flight requests are cancelled when a new tick
// supersedes them; a superseded tick is discarded by generation number and
// can never publish stale data over fresher state.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skywatch/flightradar/pkg/flight"
	"github.com/skywatch/flightradar/pkg/geo"
)

// DefaultInterval is the polling cadence when none is configured.
const DefaultInterval = 15 * time.Second

// Settings is the controller's configuration. It is owned by the run loop;
// external mutation happens only through the Set* methods.
type Settings struct {
	Mode     flight.Mode     `json:"mode"`
	Provider string          `json:"provider"`
	DemoMode bool            `json:"demo_mode"`
	Interval time.Duration   `json:"-"`
	BBox     geo.BoundingBox `json:"bbox"`
}

// Status describes the controller's fetch state for the UI boundary.
type Status struct {
	Loading   bool      `json:"loading"`
	Err       string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// tickDone carries a completed fetch back into the run loop. The generation
// number identifies which tick produced it; results from superseded
// generations are discarded.
type tickDone struct {
	gen int
	res flight.TickResult
}

// Controller drives the polling loop. Create with New, then call Start.
type Controller struct {
	mu       sync.RWMutex
	settings Settings
	latest   flight.TickResult
	status   Status

	providers map[string]flight.Provider
	demo      flight.Provider

	updates chan func(*Settings)
	refresh chan struct{}
	done    chan tickDone
	quit    chan struct{}

	subMu  sync.Mutex
	subs   map[int]chan flight.TickResult
	nextID int

	// gen and cancelFetch are touched only by the run goroutine.
	gen         int
	cancelFetch context.CancelFunc
}

// New creates a controller with the given initial settings. providers are
// registered under their Name(); demo serves ticks while demo mode is set.
func New(s Settings, demo flight.Provider, providers ...flight.Provider) *Controller {
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}
	if s.Mode == "" {
		s.Mode = flight.ModeWorld
	}
	s.BBox = s.BBox.Clamp()

	byName := make(map[string]flight.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &Controller{
		settings:  s,
		providers: byName,
		demo:      demo,
		updates:   make(chan func(*Settings), 16),
		refresh:   make(chan struct{}, 1),
		done:      make(chan tickDone),
		quit:      make(chan struct{}),
		subs:      make(map[int]chan flight.TickResult),
	}
}

// Start launches the polling loop. The first tick fires immediately. The
// loop runs until ctx is cancelled; any in-flight fetch is cancelled with
// it.
func (c *Controller) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.quit)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.cancelInflight()
			return

		case <-timer.C:
			c.startTick(ctx, timer)

		case fn := <-c.updates:
			c.mu.Lock()
			fn(&c.settings)
			c.mu.Unlock()
			stopTimer(timer)
			c.startTick(ctx, timer)

		case <-c.refresh:
			stopTimer(timer)
			c.startTick(ctx, timer)

		case d := <-c.done:
			if d.gen != c.gen {
				// A tick superseded mid-flight; its result is stale
				// and must never reach subscribers.
				continue
			}
			c.publish(d.res)
			timer.Reset(c.applyInterval(d.res.NextInterval))
		}
	}
}

// startTick begins a new fetch cycle, cancelling any previous in-flight
// one. Demo mode generates and publishes synchronously; provider fetches
// run in a goroutine and report back through the done channel.
func (c *Controller) startTick(ctx context.Context, timer *time.Timer) {
	c.cancelInflight()
	c.gen++
	gen := c.gen

	c.mu.Lock()
	s := c.settings
	c.status.Loading = true
	c.mu.Unlock()

	q := flight.Query{Mode: s.Mode, BBox: s.BBox}

	if s.DemoMode {
		res, _ := c.demo.FetchBatch(ctx, q)
		c.publish(res)
		timer.Reset(c.applyInterval(res.NextInterval))
		return
	}

	prov, ok := c.providers[s.Provider]
	if !ok {
		c.publish(flight.TickResult{Err: fmt.Sprintf("unknown provider %q", s.Provider)})
		timer.Reset(s.Interval)
		return
	}

	fctx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel

	go func() {
		res, err := prov.FetchBatch(fctx, q)
		if err != nil {
			// Cancelled tick: discard without publishing.
			return
		}
		select {
		case c.done <- tickDone{gen: gen, res: res}:
		case <-fctx.Done():
		}
	}()
}

func (c *Controller) cancelInflight() {
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

// applyInterval folds a provider cadence suggestion into the settings and
// returns the effective interval for the next tick.
func (c *Controller) applyInterval(next time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if next > 0 {
		c.settings.Interval = next
	}
	return c.settings.Interval
}

// publish records the tick as the latest snapshot and fans it out. Slow
// subscribers miss intermediate ticks rather than blocking the loop.
func (c *Controller) publish(res flight.TickResult) {
	fetchedAt := time.Now()
	if res.Epoch > 0 {
		fetchedAt = time.Unix(res.Epoch, 0)
	}

	c.mu.Lock()
	c.latest = res
	c.status = Status{Loading: false, Err: res.Err, FetchedAt: fetchedAt}
	c.mu.Unlock()

	c.subMu.Lock()
	for _, ch := range c.subs {
		select {
		case ch <- res:
		default:
		}
	}
	c.subMu.Unlock()
}

// Subscribe registers an observer of published ticks. The returned cancel
// function removes the subscription; the channel is buffered and never
// closed.
func (c *Controller) Subscribe() (<-chan flight.TickResult, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextID
	c.nextID++
	ch := make(chan flight.TickResult, 1)
	c.subs[id] = ch
	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// Latest returns the most recently published tick and the fetch status.
func (c *Controller) Latest() (flight.TickResult, Status) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.status
}

// Settings returns a copy of the current configuration.
func (c *Controller) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Refresh forces an immediate re-tick, cancelling any fetch in flight.
func (c *Controller) Refresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// SetInterval updates the polling interval and re-ticks immediately.
// Non-positive values are ignored.
func (c *Controller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	c.update(func(s *Settings) { s.Interval = d })
}

// SetBBox updates the fetch region and re-ticks immediately.
func (c *Controller) SetBBox(b geo.BoundingBox) {
	c.update(func(s *Settings) { s.BBox = b.Clamp() })
}

// SetMode updates the geographic scope and re-ticks immediately.
func (c *Controller) SetMode(m flight.Mode) {
	c.update(func(s *Settings) { s.Mode = m })
}

// SetProvider selects the active data provider and re-ticks immediately.
func (c *Controller) SetProvider(name string) {
	c.update(func(s *Settings) { s.Provider = name })
}

// SetDemoMode toggles the offline generator and re-ticks immediately.
func (c *Controller) SetDemoMode(on bool) {
	c.update(func(s *Settings) { s.DemoMode = on })
}

// update hands a settings mutation to the run loop. Every applied update
// cancels the in-flight tick and starts a fresh one.
func (c *Controller) update(fn func(*Settings)) {
	select {
	case c.updates <- fn:
	case <-c.quit:
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
