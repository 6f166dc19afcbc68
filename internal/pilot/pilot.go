// Package pilot drives the plane around the airlift cycle: fly back to the
// origin, announce boarding, wait for the hostess, fly out, and release the
// passengers at the destination. It repeats until the finished flag is seen
// at a cycle boundary.
package pilot

import (
	"context"
	"time"

	"github.com/Iron-Ham/airlift/internal/errors"
	"github.com/Iron-Ham/airlift/internal/event"
	"github.com/Iron-Ham/airlift/internal/flight"
	"github.com/Iron-Ham/airlift/internal/logging"
	"github.com/Iron-Ham/airlift/internal/signal"
	"github.com/Iron-Ham/airlift/internal/travel"
)

// Actor is the name used in logs and errors.
const Actor = "pilot"

// Direction selects the leg of a trip.
type Direction int

const (
	// Back is the leg from the destination to the origin.
	Back Direction = iota
	// Out is the leg from the origin to the destination.
	Out
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Back {
		return "back"
	}
	return "out"
}

func (d Direction) phase() flight.PilotPhase {
	if d == Back {
		return flight.FlyingBack
	}
	return flight.Flying
}

// Config holds the pilot's collaborators.
type Config struct {
	Shared  *flight.Shared
	Signals *signal.Set
	// Traveler times both legs of the trip.
	Traveler travel.Traveler
	Logger   *logging.Logger
	Bus      *event.Bus
}

// Pilot is the pilot coordinator. A Pilot runs a single loop and is not
// meant to be shared between goroutines.
type Pilot struct {
	shared   *flight.Shared
	signals  *signal.Set
	traveler travel.Traveler
	logger   *logging.Logger
	bus      *event.Bus

	flight  int
	lastLeg time.Duration
}

// New creates a pilot from cfg. A nil Logger discards output and a nil
// Traveler makes every leg instantaneous.
func New(cfg Config) *Pilot {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	traveler := cfg.Traveler
	if traveler == nil {
		traveler = travel.Fixed(0)
	}
	return &Pilot{
		shared:   cfg.Shared,
		signals:  cfg.Signals,
		traveler: traveler,
		logger:   logger.WithActor(Actor),
		bus:      cfg.Bus,
	}
}

// Flights returns how many flights the pilot has announced.
func (p *Pilot) Flights() int { return p.flight }

// Run executes cycles until the finished flag is observed at the start of
// a cycle. Once a cycle has begun it always completes; the flag is never
// checked mid-cycle. Any primitive failure aborts the loop.
func (p *Pilot) Run(ctx context.Context) error {
	p.logger.Info("pilot on duty")

	for {
		finished, err := p.finished()
		if err != nil {
			return err
		}
		if finished {
			p.logger.Info("pilot off duty", "flights", p.flight)
			return nil
		}

		if err := p.Travel(ctx, Back); err != nil {
			return err
		}
		if err := p.AnnounceBoarding(); err != nil {
			return err
		}
		if err := p.AwaitBoardingComplete(); err != nil {
			return err
		}
		if err := p.Travel(ctx, Out); err != nil {
			return err
		}
		if err := p.ArriveAndReleasePassengers(); err != nil {
			return err
		}
	}
}

func (p *Pilot) finished() (bool, error) {
	var finished bool
	err := p.shared.View(func(st *flight.State) {
		finished = st.Finished
	})
	if err != nil {
		return false, p.fail("check finished", err)
	}
	return finished, nil
}

// Travel records the flying phase for dir and then sleeps for one leg.
func (p *Pilot) Travel(ctx context.Context, dir Direction) error {
	err := p.shared.Update(func(tx *flight.Tx) error {
		if err := tx.SetPilot(dir.phase()); err != nil {
			return err
		}
		tx.Save()
		return nil
	})
	if err != nil {
		return p.fail("fly "+dir.String(), err)
	}

	d, err := p.traveler.Travel(ctx)
	if err != nil {
		return p.fail("fly "+dir.String(), err)
	}
	if dir == Out {
		p.lastLeg = d
	}
	p.logger.Debug("leg complete", "direction", dir.String(), "duration", d)
	return nil
}

// AnnounceBoarding opens a new flight and wakes the hostess.
func (p *Pilot) AnnounceBoarding() error {
	err := p.shared.Update(func(tx *flight.Tx) error {
		if err := tx.SetPilot(flight.ReadyForBoarding); err != nil {
			return err
		}
		st := tx.State()
		st.FlightNumber++
		p.flight = st.FlightNumber
		tx.Save()
		tx.Note(flight.NoteBoardingStarted)
		return nil
	})
	if err != nil {
		return p.fail("announce boarding", err)
	}

	if err := p.signals.ReadyForBoarding.Up(); err != nil {
		return p.fail("announce boarding", err)
	}
	p.logger.WithFlight(p.flight).Info("boarding announced")
	p.bus.Publish(event.NewFlightAnnouncedEvent(p.flight))
	return nil
}

// AwaitBoardingComplete blocks until the hostess reports the plane ready.
// There is no timeout; only teardown ends the wait early.
func (p *Pilot) AwaitBoardingComplete() error {
	err := p.shared.Update(func(tx *flight.Tx) error {
		if err := tx.SetPilot(flight.WaitingForBoarding); err != nil {
			return err
		}
		tx.Save()
		return nil
	})
	if err != nil {
		return p.fail("await boarding", err)
	}

	if err := p.signals.ReadyToFlight.Down(); err != nil {
		return p.fail("await boarding", err)
	}
	return nil
}

// ArriveAndReleasePassengers lets the boarded passengers out one at a time
// and waits for the last of them to report the plane empty. With nobody
// aboard it neither releases nor waits.
func (p *Pilot) ArriveAndReleasePassengers() error {
	var boarded int
	err := p.shared.Update(func(tx *flight.Tx) error {
		if err := tx.SetPilot(flight.DroppingPassengers); err != nil {
			return err
		}
		st := tx.State()
		boarded = st.Boarded
		st.InFlight = st.Boarded
		tx.Note(flight.NoteFlightArrived)
		tx.Save()
		return nil
	})
	if err != nil {
		return p.fail("arrive", err)
	}

	log := p.logger.WithFlight(p.flight)
	log.Info("arrived", "boarded", boarded)
	p.bus.Publish(event.NewFlightArrivedEvent(p.flight, boarded, p.lastLeg))

	if boarded > 0 {
		if err := p.signals.PassengersWaitInFlight.Up(); err != nil {
			return p.fail("release passengers", err)
		}
		if err := p.signals.PlaneEmpty.Down(); err != nil {
			return p.fail("await plane empty", err)
		}
	}

	err = p.shared.Update(func(tx *flight.Tx) error {
		tx.Note(flight.NoteFlightReturning)
		tx.State().Boarded = 0
		return nil
	})
	if err != nil {
		return p.fail("return", err)
	}
	log.Debug("plane empty")
	return nil
}

func (p *Pilot) fail(op string, err error) error {
	p.logger.Error("pilot failed", "op", op, "error", err.Error())
	return errors.NewActorError(Actor, op, err).WithFlight(p.flight)
}
