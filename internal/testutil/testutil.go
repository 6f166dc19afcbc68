// Package testutil provides testing utilities for airlift tests.
package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/airlift/internal/flight"
)

// NoteRecord is a flight note captured by a Recorder together with the
// flight number it was written for.
type NoteRecord struct {
	Note   flight.Note
	Flight int
}

// String renders the note the way the state log does, e.g. "1 arrived".
func (n NoteRecord) String() string {
	return fmt.Sprintf("%d %s", n.Flight, n.Note)
}

// Recorder is a flight.Sink that keeps every persisted snapshot in memory.
// Writes arrive under the simulation's gate; reads from the test goroutine
// are guarded separately, so it is safe to inspect while actors run.
type Recorder struct {
	mu     sync.Mutex
	states []flight.State
	notes  []NoteRecord
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SaveState records a deep copy of st.
func (r *Recorder) SaveState(st *flight.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st.Clone())
	return nil
}

// SaveNote records a note and the flight it belongs to.
func (r *Recorder) SaveNote(n flight.Note, st *flight.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, NoteRecord{Note: n, Flight: st.FlightNumber})
	return nil
}

// States returns a copy of every recorded snapshot.
func (r *Recorder) States() []flight.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]flight.State, len(r.states))
	copy(out, r.states)
	return out
}

// Notes returns a copy of every recorded note.
func (r *Recorder) Notes() []NoteRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NoteRecord, len(r.notes))
	copy(out, r.notes)
	return out
}

// Last returns the most recent snapshot, if any.
func (r *Recorder) Last() (flight.State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return flight.State{}, false
	}
	return r.states[len(r.states)-1], true
}

// PilotPhases returns the pilot phase sequence seen across the snapshots,
// with consecutive repeats collapsed. Rows written by other actors before
// the pilot's first move are skipped.
func (r *Recorder) PilotPhases() []flight.PilotPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []flight.PilotPhase
	for _, st := range r.states {
		if st.Pilot == flight.PilotAtRest {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == st.Pilot {
			continue
		}
		out = append(out, st.Pilot)
	}
	return out
}

// Eventually polls cond until it returns true or timeout elapses, failing
// the test with msg on timeout.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

// WaitDone waits for ch to yield an error, failing the test after timeout.
func WaitDone(t *testing.T, ch <-chan error, timeout time.Duration, what string) error {
	t.Helper()

	select {
	case err := <-ch:
		return err
	case <-time.After(timeout):
		t.Fatalf("%s did not return within %v", what, timeout)
		return nil
	}
}
