// Package flight holds the single shared record of an airlift simulation and
// the mutex-guarded accessor every actor uses to read or change it.
package flight

import "slices"

// State is the shared flight record. A State is only ever read or written
// through Shared.Update or Shared.View, both of which hold the mutex gate.
type State struct {
	Pilot      PilotPhase
	Hostess    HostessPhase
	Passengers []PassengerPhase

	// FlightNumber is incremented once per cycle when boarding is announced.
	FlightNumber int
	// Boarded is the number of passengers admitted to the current flight.
	Boarded int
	// InFlight is the remaining-count of passengers still aboard after
	// arrival; the passenger that decrements it to zero empties the plane.
	InFlight int
	// Finished is set by the terminating controller and read at cycle
	// boundaries.
	Finished bool

	// Queue holds the ids of passengers waiting at the airport, in arrival
	// order.
	Queue []int
	// Admitted and Transported count admissions and egresses over the run.
	Admitted    int
	Transported int
	// Denied marks passengers turned away at shutdown.
	Denied []bool
	// PerFlight records how many passengers each flight carried; index 0 is
	// flight 1.
	PerFlight []int
}

// NewState returns the zero-initialized record for the given number of
// passengers.
func NewState(passengers int) *State {
	return &State{
		Passengers: make([]PassengerPhase, passengers),
		Denied:     make([]bool, passengers),
	}
}

// Clone returns a deep copy safe to keep after the mutex is released.
func (s *State) Clone() State {
	c := *s
	c.Passengers = slices.Clone(s.Passengers)
	c.Queue = slices.Clone(s.Queue)
	c.Denied = slices.Clone(s.Denied)
	c.PerFlight = slices.Clone(s.PerFlight)
	return c
}

// QueueLen returns the number of passengers waiting at the airport.
func (s *State) QueueLen() int {
	return len(s.Queue)
}

// PopQueue removes and returns the passenger at the head of the queue.
func (s *State) PopQueue() (int, bool) {
	if len(s.Queue) == 0 {
		return 0, false
	}
	id := s.Queue[0]
	s.Queue = s.Queue[1:]
	return id, true
}

// Count returns how many passengers are currently in phase p.
func (s *State) Count(p PassengerPhase) int {
	n := 0
	for _, phase := range s.Passengers {
		if phase == p {
			n++
		}
	}
	return n
}
