// Package passenger runs a single passenger's trip: travel to the airport,
// queue for boarding, fly, and leave the plane at the destination.
package passenger

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/airlift/internal/boarding"
	"github.com/Iron-Ham/airlift/internal/errors"
	"github.com/Iron-Ham/airlift/internal/event"
	"github.com/Iron-Ham/airlift/internal/flight"
	"github.com/Iron-Ham/airlift/internal/logging"
	"github.com/Iron-Ham/airlift/internal/signal"
	"github.com/Iron-Ham/airlift/internal/travel"
)

// Actor is the name used in logs and errors.
const Actor = "passenger"

// Config holds the collaborators shared by every passenger.
type Config struct {
	Shared  *flight.Shared
	Signals *signal.Set
	Desk    *boarding.Desk
	// Traveler times the trip to the airport.
	Traveler travel.Traveler
	Logger   *logging.Logger
	Bus      *event.Bus
}

// Passenger is one passenger coordinator.
type Passenger struct {
	id       int
	cfg      Config
	traveler travel.Traveler
	logger   *logging.Logger

	flight  int
	outcome flight.PassengerPhase
}

// New creates passenger id.
func New(id int, cfg Config) *Passenger {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	traveler := cfg.Traveler
	if traveler == nil {
		traveler = travel.Fixed(0)
	}
	return &Passenger{
		id:       id,
		cfg:      cfg,
		traveler: traveler,
		logger:   logger.WithActor(Actor).WithPassenger(id),
	}
}

// ID returns the passenger's id.
func (p *Passenger) ID() int { return p.id }

// Flight returns the flight the passenger took, or zero.
func (p *Passenger) Flight() int { return p.flight }

// Outcome returns the passenger's last phase. It is AtDestination or
// TurnedAway once Run has returned nil.
func (p *Passenger) Outcome() flight.PassengerPhase { return p.outcome }

// Run performs the whole trip.
func (p *Passenger) Run(ctx context.Context) error {
	if _, err := p.traveler.Travel(ctx); err != nil {
		return p.fail("go to airport", err)
	}

	queued, err := p.joinQueue()
	if err != nil {
		return err
	}
	if !queued {
		return nil
	}

	boarded, err := p.board()
	if err != nil {
		return err
	}
	if !boarded {
		return nil
	}

	return p.leave()
}

// joinQueue enters the airport queue unless the simulation has already
// finished, in which case the passenger is turned away at the door.
func (p *Passenger) joinQueue() (bool, error) {
	var turned bool
	err := p.cfg.Shared.Update(func(tx *flight.Tx) error {
		st := tx.State()
		if st.Finished {
			turned = true
			if err := tx.SetPassenger(p.id, flight.TurnedAway); err != nil {
				return err
			}
			tx.Save()
			return nil
		}
		if err := tx.SetPassenger(p.id, flight.InQueue); err != nil {
			return err
		}
		st.Queue = append(st.Queue, p.id)
		tx.Save()
		return nil
	})
	if err != nil {
		return false, p.fail("join queue", err)
	}
	if turned {
		p.turnedAway()
		return false, nil
	}

	p.outcome = flight.InQueue
	if err := p.cfg.Desk.Arrive(); err != nil {
		return false, p.fail("join queue", err)
	}
	p.logger.Debug("in queue")
	return true, nil
}

// board waits to be called by the hostess and takes a seat, or leaves if
// the hostess denied boarding at shutdown.
func (p *Passenger) board() (bool, error) {
	if err := p.cfg.Desk.AwaitCall(p.id); err != nil {
		return false, p.fail("wait for boarding", err)
	}

	var denied bool
	err := p.cfg.Shared.Update(func(tx *flight.Tx) error {
		st := tx.State()
		denied = st.Denied[p.id]
		next := flight.InFlight
		if denied {
			next = flight.TurnedAway
		}
		if err := tx.SetPassenger(p.id, next); err != nil {
			return err
		}
		p.flight = st.FlightNumber
		tx.Save()
		return nil
	})
	if err != nil {
		return false, p.fail("board", err)
	}
	if denied {
		p.flight = 0
		p.turnedAway()
		return false, nil
	}

	p.outcome = flight.InFlight
	if err := p.cfg.Desk.Ack(); err != nil {
		return false, p.fail("board", err)
	}
	p.logger.WithFlight(p.flight).Debug("boarded")
	p.cfg.Bus.Publish(event.NewPassengerBoardedEvent(p.flight, p.id))
	return true, nil
}

// leave waits for the baton, steps off, and passes the baton on. The
// passenger whose decrement empties the plane tells the pilot instead.
func (p *Passenger) leave() error {
	if err := p.cfg.Signals.PassengersWaitInFlight.Down(); err != nil {
		return p.fail("wait to leave", err)
	}

	var remaining int
	err := p.cfg.Shared.Update(func(tx *flight.Tx) error {
		if err := tx.SetPassenger(p.id, flight.AtDestination); err != nil {
			return err
		}
		st := tx.State()
		if st.InFlight <= 0 {
			return errors.Wrapf(errors.ErrCapacityExceeded, "egress with %d aboard", st.InFlight)
		}
		st.InFlight--
		st.Transported++
		remaining = st.InFlight
		tx.Save()
		return nil
	})
	if err != nil {
		return p.fail("leave", err)
	}
	p.outcome = flight.AtDestination

	log := p.logger.WithFlight(p.flight)
	p.cfg.Bus.Publish(event.NewPassengerLeftEvent(p.flight, p.id, remaining))

	if remaining == 0 {
		if err := p.cfg.Signals.PlaneEmpty.Up(); err != nil {
			return p.fail("report plane empty", err)
		}
		log.Debug("left last, plane empty")
		p.cfg.Bus.Publish(event.NewPlaneEmptiedEvent(p.flight, p.id))
		return nil
	}

	if err := p.cfg.Signals.PassengersWaitInFlight.Up(); err != nil {
		return p.fail("pass baton", err)
	}
	log.Debug("left", "remaining", remaining)
	return nil
}

func (p *Passenger) turnedAway() {
	p.outcome = flight.TurnedAway
	p.logger.Info("turned away")
	p.cfg.Bus.Publish(event.NewPassengerTurnedAwayEvent(p.id))
}

func (p *Passenger) fail(op string, err error) error {
	p.logger.Error("passenger failed", "op", op, "error", err.Error())
	return errors.NewActorError(fmt.Sprintf("%s-%d", Actor, p.id), op, err).WithFlight(p.flight)
}
