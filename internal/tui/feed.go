package tui

import (
	"fmt"
	"sync"

	"github.com/Iron-Ham/airlift/internal/event"
)

// DefaultFeedLines is how many recent events the live view keeps.
const DefaultFeedLines = 10

// Feed keeps the most recent simulation events as display lines. Handlers
// only append under a private lock, so publishing actors are never held up
// by the UI.
type Feed struct {
	bus   *event.Bus
	subID string

	mu    sync.Mutex
	lines []string
	limit int
}

// NewFeed subscribes to every event on bus. A non-positive limit uses
// DefaultFeedLines.
func NewFeed(bus *event.Bus, limit int) *Feed {
	if limit <= 0 {
		limit = DefaultFeedLines
	}
	f := &Feed{bus: bus, limit: limit}
	f.subID = bus.SubscribeAll(f.add)
	return f
}

// Close stops receiving events.
func (f *Feed) Close() {
	if f.subID != "" {
		f.bus.Unsubscribe(f.subID)
		f.subID = ""
	}
}

func (f *Feed) add(e event.Event) {
	line := Describe(e)
	if line == "" {
		return
	}
	line = e.Timestamp().Format("15:04:05.000") + "  " + line

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	if over := len(f.lines) - f.limit; over > 0 {
		f.lines = append(f.lines[:0], f.lines[over:]...)
	}
}

// Lines returns a copy of the retained lines, oldest first.
func (f *Feed) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}

// Describe renders an event as one human-readable line. Events the live
// view does not show return "".
func Describe(e event.Event) string {
	switch ev := e.(type) {
	case event.FlightAnnouncedEvent:
		return fmt.Sprintf("flight %d boarding", ev.Flight)
	case event.BoardingCompleteEvent:
		if ev.Last {
			return fmt.Sprintf("flight %d departs with %d (last flight)", ev.Flight, ev.Boarded)
		}
		return fmt.Sprintf("flight %d departs with %d", ev.Flight, ev.Boarded)
	case event.FlightArrivedEvent:
		return fmt.Sprintf("flight %d arrived after %s", ev.Flight, ev.Travel)
	case event.PlaneEmptiedEvent:
		return fmt.Sprintf("flight %d emptied by passenger %d", ev.Flight, ev.Passenger)
	case event.PassengerTurnedAwayEvent:
		return fmt.Sprintf("passenger %d turned away", ev.Passenger)
	case event.SimulationFinishedEvent:
		if ev.Err != nil {
			return "simulation aborted: " + ev.Err.Error()
		}
		return fmt.Sprintf("simulation finished: %d transported in %d flights", ev.Transported, ev.Flights)
	default:
		return ""
	}
}
