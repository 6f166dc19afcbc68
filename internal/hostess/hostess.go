// Package hostess boards passengers for each flight the pilot announces.
//
// The hostess admits passengers from the airport queue one at a time,
// stops when the plane is full, when everyone has been admitted, or when
// the minimum load is aboard and nobody is waiting, and then reports the
// plane ready. She never leaves on the finished flag alone: the pilot may
// already have announced another flight. She goes off duty, turning away
// whoever is still queued, only when she is woken without a new flight,
// which happens once the pilot has stopped.
package hostess

import (
	"github.com/Iron-Ham/airlift/internal/boarding"
	"github.com/Iron-Ham/airlift/internal/errors"
	"github.com/Iron-Ham/airlift/internal/event"
	"github.com/Iron-Ham/airlift/internal/flight"
	"github.com/Iron-Ham/airlift/internal/logging"
	"github.com/Iron-Ham/airlift/internal/signal"
)

// Actor is the name used in logs and errors.
const Actor = "hostess"

// Config holds the hostess's collaborators and boarding limits.
type Config struct {
	Shared  *flight.Shared
	Signals *signal.Set
	Desk    *boarding.Desk

	// Capacity is the most passengers a single flight carries.
	Capacity int
	// MinPassengers is the load at which the hostess stops waiting for
	// more arrivals when the queue is empty.
	MinPassengers int
	// Passengers is the total number of passengers in the simulation.
	Passengers int
	// MaxFlights raises the finished flag once that many flights have
	// departed. Zero means no limit.
	MaxFlights int

	Logger *logging.Logger
	Bus    *event.Bus
}

// Hostess is the hostess coordinator.
type Hostess struct {
	cfg    Config
	logger *logging.Logger

	lastFlight int
	denied     int
}

// New creates a hostess from cfg.
func New(cfg Config) *Hostess {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Hostess{
		cfg:    cfg,
		logger: logger.WithActor(Actor),
	}
}

// Denied returns how many queued passengers were turned away at shutdown.
func (h *Hostess) Denied() int { return h.denied }

// Run boards every flight the pilot announces. It returns once she is
// woken without a new flight, after the pilot has stopped flying.
func (h *Hostess) Run() error {
	h.logger.Info("hostess on duty")

	for {
		fresh, err := h.awaitFlight()
		if err != nil {
			return err
		}
		if !fresh {
			return h.goOffDuty()
		}

		if err := h.board(); err != nil {
			return err
		}
		if err := h.reportReady(); err != nil {
			return err
		}
	}
}

// goOffDuty marks every queued passenger as denied, records the terminal
// phase, and then wakes the denied passengers so none stays parked.
func (h *Hostess) goOffDuty() error {
	var denied []int
	err := h.cfg.Shared.Update(func(tx *flight.Tx) error {
		if err := tx.SetHostess(flight.OffDuty); err != nil {
			return err
		}
		st := tx.State()
		for {
			id, ok := st.PopQueue()
			if !ok {
				break
			}
			st.Denied[id] = true
			denied = append(denied, id)
		}
		tx.Save()
		return nil
	})
	if err != nil {
		return h.fail("go off duty", err)
	}

	for _, id := range denied {
		if err := h.cfg.Desk.Call(id); err != nil {
			return h.fail("deny passenger", err)
		}
	}
	h.denied += len(denied)
	h.logger.Info("hostess off duty", "denied", len(denied))
	return nil
}

// awaitFlight waits for the pilot's announcement and reports whether a new
// flight was actually opened.
func (h *Hostess) awaitFlight() (bool, error) {
	err := h.cfg.Shared.Update(func(tx *flight.Tx) error {
		if err := tx.SetHostess(flight.WaitForFlight); err != nil {
			return err
		}
		tx.Save()
		return nil
	})
	if err != nil {
		return false, h.fail("wait for flight", err)
	}

	if err := h.cfg.Signals.ReadyForBoarding.Down(); err != nil {
		return false, h.fail("wait for flight", err)
	}

	var current int
	if err := h.cfg.Shared.View(func(st *flight.State) { current = st.FlightNumber }); err != nil {
		return false, h.fail("wait for flight", err)
	}
	if current == h.lastFlight {
		return false, nil
	}
	h.lastFlight = current
	return true, nil
}

// full reports whether boarding for the current flight is over.
func (h *Hostess) full(st *flight.State) bool {
	switch {
	case st.Boarded >= h.cfg.Capacity:
		return true
	case st.Admitted >= h.cfg.Passengers:
		return true
	case st.Finished && st.QueueLen() == 0:
		return true
	case st.Boarded >= h.cfg.MinPassengers && st.QueueLen() == 0:
		return true
	default:
		return false
	}
}

func (h *Hostess) board() error {
	log := h.logger.WithFlight(h.lastFlight)

	for {
		var stop bool
		err := h.cfg.Shared.Update(func(tx *flight.Tx) error {
			if h.full(tx.State()) {
				stop = true
				return nil
			}
			if err := tx.SetHostess(flight.WaitForPassenger); err != nil {
				return err
			}
			tx.Save()
			return nil
		})
		if err != nil {
			return h.fail("wait for passenger", err)
		}
		if stop {
			return nil
		}

		if err := h.cfg.Desk.AwaitArrival(); err != nil {
			return h.fail("wait for passenger", err)
		}

		id := -1
		err = h.cfg.Shared.Update(func(tx *flight.Tx) error {
			st := tx.State()
			if st.QueueLen() == 0 {
				// Controller nudge; re-check the stopping rule.
				return nil
			}
			if st.Boarded >= h.cfg.Capacity {
				return errors.ErrCapacityExceeded
			}
			next, _ := st.PopQueue()
			if err := tx.SetHostess(flight.CheckPassport); err != nil {
				return err
			}
			id = next
			st.Boarded++
			st.Admitted++
			tx.Save()
			return nil
		})
		if err != nil {
			return h.fail("check passport", err)
		}
		if id < 0 {
			continue
		}

		if err := h.cfg.Desk.Call(id); err != nil {
			return h.fail("admit passenger", err)
		}
		if err := h.cfg.Desk.AwaitAck(); err != nil {
			return h.fail("admit passenger", err)
		}
		log.Debug("passenger admitted", "passenger", id)
	}
}

func (h *Hostess) reportReady() error {
	var boarded int
	var last bool
	err := h.cfg.Shared.Update(func(tx *flight.Tx) error {
		if err := tx.SetHostess(flight.ReadyToFly); err != nil {
			return err
		}
		st := tx.State()
		boarded = st.Boarded
		st.PerFlight = append(st.PerFlight, st.Boarded)
		if st.Admitted >= h.cfg.Passengers ||
			(h.cfg.MaxFlights > 0 && st.FlightNumber >= h.cfg.MaxFlights) {
			st.Finished = true
		}
		last = st.Finished
		tx.Save()
		tx.Note(flight.NoteFlightDeparted)
		return nil
	})
	if err != nil {
		return h.fail("report ready", err)
	}

	if err := h.cfg.Signals.ReadyToFlight.Up(); err != nil {
		return h.fail("report ready", err)
	}
	h.logger.WithFlight(h.lastFlight).Info("boarding complete", "boarded", boarded, "last", last)
	h.cfg.Bus.Publish(event.NewBoardingCompleteEvent(h.lastFlight, boarded, last))
	return nil
}

func (h *Hostess) fail(op string, err error) error {
	h.logger.Error("hostess failed", "op", op, "error", err.Error())
	return errors.NewActorError(Actor, op, err).WithFlight(h.lastFlight)
}
