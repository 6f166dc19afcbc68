package flight

import (
	"fmt"

	"github.com/Iron-Ham/airlift/internal/errors"
)

// Locker is the exclusive gate guarding the record. signal.Mutex satisfies it.
type Locker interface {
	Lock() error
	Unlock() error
}

// Note marks a flight event appended to the state log next to the state rows.
type Note int

const (
	NoteBoardingStarted Note = iota
	NoteFlightDeparted
	NoteFlightArrived
	NoteFlightReturning
)

func (n Note) String() string {
	switch n {
	case NoteBoardingStarted:
		return "boarding started"
	case NoteFlightDeparted:
		return "departed"
	case NoteFlightArrived:
		return "arrived"
	case NoteFlightReturning:
		return "returning"
	default:
		return "unknown"
	}
}

// Sink persists the record. Both methods are called with the mutex held,
// after the in-memory record has been updated, and must not block on any
// rendezvous signal. The *State is only valid for the duration of the call.
type Sink interface {
	SaveState(st *State) error
	SaveNote(note Note, st *State) error
}

type nopSink struct{}

func (nopSink) SaveState(*State) error      { return nil }
func (nopSink) SaveNote(Note, *State) error { return nil }

// Shared couples the record with its gate and persistence sink.
type Shared struct {
	gate  Locker
	sink  Sink
	state *State
}

// NewShared creates the shared record for the given number of passengers.
// A nil sink discards persistence writes.
func NewShared(gate Locker, sink Sink, passengers int) *Shared {
	if sink == nil {
		sink = nopSink{}
	}
	return &Shared{
		gate:  gate,
		sink:  sink,
		state: NewState(passengers),
	}
}

// Update runs fn with the gate held. fn must not block: every rendezvous
// wait happens after Update returns. The first persistence failure recorded
// through the Tx is returned along with any error from fn.
func (s *Shared) Update(fn func(tx *Tx) error) error {
	if err := s.gate.Lock(); err != nil {
		return err
	}

	tx := &Tx{st: s.state, sink: s.sink}
	err := fn(tx)
	if err == nil {
		err = tx.err
	}

	if uerr := s.gate.Unlock(); uerr != nil {
		return errors.Join(err, uerr)
	}
	return err
}

// View runs fn with the gate held for a read-only look at the record.
func (s *Shared) View(fn func(st *State)) error {
	return s.Update(func(tx *Tx) error {
		fn(tx.st)
		return nil
	})
}

// Snapshot returns a deep copy of the record taken under the gate.
func (s *Shared) Snapshot() (State, error) {
	var snap State
	err := s.View(func(st *State) {
		snap = st.Clone()
	})
	return snap, err
}

// Tx is the handle given to Update callbacks. Phase setters enforce the
// transition tables; Save and Note forward to the sink.
type Tx struct {
	st   *State
	sink Sink
	err  error
}

// State returns the record. It must not be retained after the callback.
func (tx *Tx) State() *State { return tx.st }

// SetPilot moves the pilot to p, rejecting any skip or repeat.
func (tx *Tx) SetPilot(p PilotPhase) error {
	if !tx.st.Pilot.CanTransition(p) {
		return errors.NewProtocolError("pilot", tx.st.Pilot.String(), p.String())
	}
	tx.st.Pilot = p
	return nil
}

// SetHostess moves the hostess to h.
func (tx *Tx) SetHostess(h HostessPhase) error {
	if !tx.st.Hostess.CanTransition(h) {
		return errors.NewProtocolError("hostess", tx.st.Hostess.String(), h.String())
	}
	tx.st.Hostess = h
	return nil
}

// SetPassenger moves passenger id to p.
func (tx *Tx) SetPassenger(id int, p PassengerPhase) error {
	if id < 0 || id >= len(tx.st.Passengers) {
		return fmt.Errorf("passenger %d: %w", id, errors.ErrUnknownPassenger)
	}
	cur := tx.st.Passengers[id]
	if !cur.CanTransition(p) {
		return errors.NewProtocolError(fmt.Sprintf("passenger %d", id), cur.String(), p.String())
	}
	tx.st.Passengers[id] = p
	return nil
}

// Save persists the current record.
func (tx *Tx) Save() {
	if err := tx.sink.SaveState(tx.st); err != nil && tx.err == nil {
		tx.err = errors.Wrap(err, "save state")
	}
}

// Note persists a flight event.
func (tx *Tx) Note(n Note) {
	if err := tx.sink.SaveNote(n, tx.st); err != nil && tx.err == nil {
		tx.err = errors.Wrapf(err, "save note %q", n)
	}
}
