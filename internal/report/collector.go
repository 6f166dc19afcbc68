// Package report gathers per-flight statistics from the event bus and
// renders the end-of-run summary.
package report

import (
	"slices"
	"sync"
	"time"

	"github.com/Iron-Ham/airlift/internal/event"
)

// FlightStats describes one flight.
type FlightStats struct {
	Flight  int
	Boarded int
	// Left counts passengers who stepped off at the destination.
	Left int
	// Leg is the duration of the outbound leg.
	Leg time.Duration
	// Last is set on the flight that raised the finished flag.
	Last    bool
	Emptied bool

	Announced time.Time
	Arrived   time.Time
}

// Collector subscribes to a bus and accumulates FlightStats. It is safe for
// concurrent use; handlers run on the actors' goroutines.
type Collector struct {
	bus  *event.Bus
	subs []string

	mu         sync.Mutex
	flights    map[int]*FlightStats
	turnedAway int
	finished   *event.SimulationFinishedEvent
}

// NewCollector creates a Collector subscribed to bus.
func NewCollector(bus *event.Bus) *Collector {
	c := &Collector{
		bus:     bus,
		flights: make(map[int]*FlightStats),
	}
	c.subs = []string{
		bus.Subscribe(event.TypeFlightAnnounced, c.onAnnounced),
		bus.Subscribe(event.TypeBoardingComplete, c.onBoardingComplete),
		bus.Subscribe(event.TypeFlightArrived, c.onArrived),
		bus.Subscribe(event.TypePassengerLeft, c.onPassengerLeft),
		bus.Subscribe(event.TypePlaneEmptied, c.onPlaneEmptied),
		bus.Subscribe(event.TypePassengerTurnedAway, c.onTurnedAway),
		bus.Subscribe(event.TypeSimulationFinished, c.onFinished),
	}
	return c
}

// Close unsubscribes from the bus.
func (c *Collector) Close() {
	for _, id := range c.subs {
		c.bus.Unsubscribe(id)
	}
	c.subs = nil
}

// flight returns the stats for n, creating them on first use. Callers hold mu.
func (c *Collector) flight(n int) *FlightStats {
	fs, ok := c.flights[n]
	if !ok {
		fs = &FlightStats{Flight: n}
		c.flights[n] = fs
	}
	return fs
}

func (c *Collector) onAnnounced(e event.Event) {
	ev := e.(event.FlightAnnouncedEvent)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flight(ev.Flight).Announced = ev.Timestamp()
}

func (c *Collector) onBoardingComplete(e event.Event) {
	ev := e.(event.BoardingCompleteEvent)
	c.mu.Lock()
	defer c.mu.Unlock()
	fs := c.flight(ev.Flight)
	fs.Boarded = ev.Boarded
	fs.Last = ev.Last
}

func (c *Collector) onArrived(e event.Event) {
	ev := e.(event.FlightArrivedEvent)
	c.mu.Lock()
	defer c.mu.Unlock()
	fs := c.flight(ev.Flight)
	fs.Leg = ev.Travel
	fs.Arrived = ev.Timestamp()
}

func (c *Collector) onPassengerLeft(e event.Event) {
	ev := e.(event.PassengerLeftEvent)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flight(ev.Flight).Left++
}

func (c *Collector) onPlaneEmptied(e event.Event) {
	ev := e.(event.PlaneEmptiedEvent)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flight(ev.Flight).Emptied = true
}

func (c *Collector) onTurnedAway(event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turnedAway++
}

func (c *Collector) onFinished(e event.Event) {
	ev := e.(event.SimulationFinishedEvent)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = &ev
}

// Flights returns a copy of the per-flight stats ordered by flight number.
func (c *Collector) Flights() []FlightStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]FlightStats, 0, len(c.flights))
	for _, fs := range c.flights {
		out = append(out, *fs)
	}
	slices.SortFunc(out, func(a, b FlightStats) int { return a.Flight - b.Flight })
	return out
}

// TurnedAway returns how many passengers were turned away.
func (c *Collector) TurnedAway() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turnedAway
}

// Finished reports whether the simulation finished event was seen, and
// its error if the run aborted.
func (c *Collector) Finished() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished == nil {
		return false, nil
	}
	return true, c.finished.Err
}
