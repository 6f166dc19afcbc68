// Package sim wires one airlift simulation together: the signal set, the
// shared flight record and its persistence, the boarding desk, and the
// pilot, hostess and passenger actors. Run supervises the actors and tears
// everything down if any of them fails.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Iron-Ham/airlift/internal/boarding"
	"github.com/Iron-Ham/airlift/internal/config"
	"github.com/Iron-Ham/airlift/internal/errors"
	"github.com/Iron-Ham/airlift/internal/event"
	"github.com/Iron-Ham/airlift/internal/flight"
	"github.com/Iron-Ham/airlift/internal/hostess"
	"github.com/Iron-Ham/airlift/internal/logging"
	"github.com/Iron-Ham/airlift/internal/passenger"
	"github.com/Iron-Ham/airlift/internal/pilot"
	"github.com/Iron-Ham/airlift/internal/signal"
	"github.com/Iron-Ham/airlift/internal/statelog"
	"github.com/Iron-Ham/airlift/internal/travel"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"
)

// Options sizes and times a simulation.
type Options struct {
	Passengers    int
	Capacity      int
	MinPassengers int
	// MaxFlights finishes the run after that many flights; zero runs until
	// every passenger has been transported.
	MaxFlights int
	// Seed drives every travel time. Zero derives a seed from the clock.
	Seed uint64

	FlightMin     time.Duration
	FlightSpread  time.Duration
	AirportSpread time.Duration

	// StateLogPath names the state log file; empty disables it.
	StateLogPath string
	// Sinks receive every persisted state change after the state log.
	Sinks []flight.Sink

	Logger *logging.Logger
	Bus    *event.Bus
}

// OptionsFromConfig maps a loaded configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Passengers:    cfg.Simulation.Passengers,
		Capacity:      cfg.Simulation.Capacity,
		MinPassengers: cfg.Simulation.MinPassengers,
		MaxFlights:    cfg.Simulation.MaxFlights,
		Seed:          cfg.Simulation.Seed,
		FlightMin:     cfg.Timing.FlightMin(),
		FlightSpread:  cfg.Timing.FlightSpread(),
		AirportSpread: cfg.Timing.AirportSpread(),
		StateLogPath:  cfg.StateLog.Path,
	}
}

func (o Options) validate() error {
	switch {
	case o.Passengers < 1:
		return fmt.Errorf("passengers must be at least 1 (got %d): %w", o.Passengers, errors.ErrInvalidInput)
	case o.Capacity < 1:
		return fmt.Errorf("capacity must be at least 1 (got %d): %w", o.Capacity, errors.ErrInvalidInput)
	case o.MinPassengers < 1 || o.MinPassengers > o.Capacity:
		return fmt.Errorf("min passengers must be between 1 and %d (got %d): %w", o.Capacity, o.MinPassengers, errors.ErrInvalidInput)
	case o.MaxFlights < 0:
		return fmt.Errorf("max flights must be non-negative (got %d): %w", o.MaxFlights, errors.ErrInvalidInput)
	}
	return nil
}

// Result summarizes a finished run.
type Result struct {
	ID          string
	Flights     int
	PerFlight   []int
	Transported int
	TurnedAway  int
	Outcomes    []flight.PassengerPhase
	Elapsed     time.Duration
	Seed        uint64
}

// Simulation is one airlift run. It is single-use: Run may be called once.
type Simulation struct {
	id      string
	opts    Options
	logger  *logging.Logger
	bus     *event.Bus
	set     *signal.Set
	shared  *flight.Shared
	desk    *boarding.Desk
	log     *statelog.Log
	control *Controller

	pilot      *pilot.Pilot
	hostess    *hostess.Hostess
	passengers []*passenger.Passenger

	// cause is the failure that tore the set down. Every later failure is
	// a consequence of the teardown.
	causeOnce sync.Once
	cause     error
}

// New builds a simulation. The state log, if configured, is created and
// its header written immediately.
func New(opts Options) (*Simulation, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}

	id := uuid.New().String()
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.With("run", id)

	s := &Simulation{
		id:     id,
		opts:   opts,
		logger: logger,
		bus:    opts.Bus,
		set:    signal.NewSet(opts.Capacity),
	}

	var sink statelog.Tee
	if opts.StateLogPath != "" {
		log, err := statelog.Create(opts.StateLogPath, opts.Passengers)
		if err != nil {
			return nil, err
		}
		s.log = log
		sink = append(sink, log)
	}
	sink = append(sink, opts.Sinks...)

	s.shared = flight.NewShared(s.set.Mutex, sink, opts.Passengers)
	s.desk = boarding.NewDesk(s.set, opts.Passengers)
	s.control = &Controller{shared: s.shared, set: s.set, desk: s.desk, logger: logger}

	s.pilot = pilot.New(pilot.Config{
		Shared:   s.shared,
		Signals:  s.set,
		Traveler: travel.NewPlanner(opts.Seed, opts.FlightMin, opts.FlightSpread),
		Logger:   logger,
		Bus:      s.bus,
	})
	s.hostess = hostess.New(hostess.Config{
		Shared:        s.shared,
		Signals:       s.set,
		Desk:          s.desk,
		Capacity:      opts.Capacity,
		MinPassengers: opts.MinPassengers,
		Passengers:    opts.Passengers,
		MaxFlights:    opts.MaxFlights,
		Logger:        logger,
		Bus:           s.bus,
	})

	airport := travel.NewPlanner(opts.Seed+1, 0, opts.AirportSpread)
	s.passengers = make([]*passenger.Passenger, opts.Passengers)
	for i := range s.passengers {
		s.passengers[i] = passenger.New(i, passenger.Config{
			Shared:   s.shared,
			Signals:  s.set,
			Desk:     s.desk,
			Traveler: airport,
			Logger:   logger,
			Bus:      s.bus,
		})
	}

	return s, nil
}

// ID returns the run identifier attached to every log entry.
func (s *Simulation) ID() string { return s.id }

// Controller returns the terminating controller for this run.
func (s *Simulation) Controller() *Controller { return s.control }

// Shared returns the shared flight record.
func (s *Simulation) Shared() *flight.Shared { return s.shared }

// Signals returns the signal set.
func (s *Simulation) Signals() *signal.Set { return s.set }

// Run starts every actor and waits for all of them. The first failure
// tears the signal set down so that no actor stays blocked, and is
// returned. Canceling ctx aborts the run the same way; use the Controller
// to finish gracefully instead.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	defer s.closeLog()

	stop := context.AfterFunc(ctx, s.set.Close)
	defer stop()

	start := time.Now()
	s.logger.Info("simulation started",
		"passengers", s.opts.Passengers,
		"capacity", s.opts.Capacity,
		"min_passengers", s.opts.MinPassengers,
		"max_flights", s.opts.MaxFlights,
		"seed", s.opts.Seed,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.pilot.Run(gctx); err != nil {
			return s.abort(err)
		}
		// The hostess may be parked on readyForBoarding for a flight that
		// will never be announced.
		return s.abort(s.control.pilotDone())
	})
	g.Go(func() error {
		return s.abort(s.hostess.Run())
	})
	g.Go(func() error {
		p := pool.New().WithContext(gctx).WithCancelOnError()
		for _, ps := range s.passengers {
			// Canceling the pool only cuts travel short; the others are
			// parked on signals that only teardown releases.
			p.Go(func(ctx context.Context) error {
				return s.abort(ps.Run(ctx))
			})
		}
		return s.abort(p.Wait())
	})

	err := g.Wait()
	elapsed := time.Since(start)
	if err != nil {
		if s.cause != nil {
			err = s.cause
		}
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", errors.ErrAborted, err)
		}
		s.logger.Error("simulation aborted",
			"error", err.Error(),
			"severity", errors.GetSeverity(err).String(),
			"fatal", errors.IsFatal(err),
			"elapsed", elapsed,
		)
		s.bus.Publish(event.NewSimulationFinishedEvent(s.pilot.Flights(), 0, err))
		return nil, err
	}

	snap, err := s.shared.Snapshot()
	s.set.Close()
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:          s.id,
		Flights:     snap.FlightNumber,
		PerFlight:   snap.PerFlight,
		Transported: snap.Transported,
		TurnedAway:  snap.Count(flight.TurnedAway),
		Outcomes:    snap.Passengers,
		Elapsed:     elapsed,
		Seed:        s.opts.Seed,
	}
	s.logger.Info("simulation finished",
		"flights", res.Flights,
		"transported", res.Transported,
		"turned_away", res.TurnedAway,
		"elapsed", elapsed,
	)
	s.bus.Publish(event.NewSimulationFinishedEvent(res.Flights, res.Transported, nil))
	return res, nil
}

func (s *Simulation) abort(err error) error {
	if err != nil {
		s.causeOnce.Do(func() { s.cause = err })
		s.set.Close()
	}
	return err
}

func (s *Simulation) closeLog() {
	if s.log == nil {
		return
	}
	if err := s.log.Close(); err != nil {
		s.logger.Warn("failed to close state log", "error", err.Error())
	}
}
