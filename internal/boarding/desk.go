// Package boarding implements the admission handshake between the hostess
// and the passengers waiting at the airport. It sits beside the core signal
// set and is torn down with it.
package boarding

import (
	"fmt"

	"github.com/Iron-Ham/airlift/internal/errors"
	"github.com/Iron-Ham/airlift/internal/signal"
)

// Signal names used by the desk.
const (
	NameArrivals = "arrivals"
	NameBoarded  = "boarded"
)

// Desk holds the arrival, admission and acknowledgement signals.
//
// Every passenger raises Arrivals exactly once after joining the queue, and
// the terminating controller may raise it once more to wake a hostess
// waiting for passengers that will never come. A wake with an empty queue is
// therefore not an error; the hostess re-evaluates its stopping rule.
type Desk struct {
	arrivals   *signal.Signal
	boarded    *signal.Signal
	admissions []*signal.Signal
}

// NewDesk creates a desk for the given number of passengers on set.
func NewDesk(set *signal.Set, passengers int) *Desk {
	d := &Desk{
		arrivals:   set.NewCounting(NameArrivals, passengers+1),
		boarded:    set.NewBinary(NameBoarded),
		admissions: make([]*signal.Signal, passengers),
	}
	for i := range d.admissions {
		d.admissions[i] = set.NewBinary(fmt.Sprintf("admission[%d]", i))
	}
	return d
}

// Passengers returns the number of passengers the desk serves.
func (d *Desk) Passengers() int { return len(d.admissions) }

// Arrive tells the hostess a passenger has joined the queue.
func (d *Desk) Arrive() error {
	return d.arrivals.Up()
}

// Nudge wakes a hostess waiting for an arrival without adding anyone to the
// queue.
func (d *Desk) Nudge() error {
	return d.arrivals.Up()
}

// AwaitArrival blocks the hostess until an arrival or a nudge is pending.
func (d *Desk) AwaitArrival() error {
	return d.arrivals.Down()
}

// Call wakes passenger id at the head of the queue. Whether the passenger
// was admitted or denied is recorded in the shared record before the call.
func (d *Desk) Call(id int) error {
	s, err := d.admission(id)
	if err != nil {
		return err
	}
	return s.Up()
}

// AwaitCall blocks passenger id until the hostess calls it.
func (d *Desk) AwaitCall(id int) error {
	s, err := d.admission(id)
	if err != nil {
		return err
	}
	return s.Down()
}

// Ack tells the hostess the called passenger has taken its seat.
func (d *Desk) Ack() error {
	return d.boarded.Up()
}

// AwaitAck blocks the hostess until the called passenger acknowledges.
func (d *Desk) AwaitAck() error {
	return d.boarded.Down()
}

// Arrivals exposes the arrivals signal for inspection.
func (d *Desk) Arrivals() *signal.Signal { return d.arrivals }

func (d *Desk) admission(id int) (*signal.Signal, error) {
	if id < 0 || id >= len(d.admissions) {
		return nil, fmt.Errorf("passenger %d: %w", id, errors.ErrUnknownPassenger)
	}
	return d.admissions[id], nil
}
