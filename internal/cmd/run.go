package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Iron-Ham/airlift/internal/config"
	"github.com/Iron-Ham/airlift/internal/event"
	"github.com/Iron-Ham/airlift/internal/logging"
	"github.com/Iron-Ham/airlift/internal/report"
	"github.com/Iron-Ham/airlift/internal/sim"
	"github.com/Iron-Ham/airlift/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one airlift simulation",
	Long: `Run one airlift simulation and print a per-flight summary.

Flags override the config file and AIRLIFT_* environment variables.
Press Ctrl+C once to finish after the flight in progress; press it again
to abort immediately. With --watch a live view of the shared record is
shown while the simulation runs.

Examples:
  airlift run
  airlift run --passengers 9 --capacity 3 --min 2
  airlift run --max-flights 2 --seed 42 --log /tmp/airlift.log
  airlift run --watch --passengers 30 --max-flight-us 200000`,
	Args: cobra.NoArgs,
	RunE: runSimulation,
}

// runFlags maps each run flag onto the config key it overrides.
var runFlags = []struct {
	flag string
	key  string
}{
	{"passengers", "simulation.passengers"},
	{"capacity", "simulation.capacity"},
	{"min", "simulation.min_passengers"},
	{"max-flights", "simulation.max_flights"},
	{"seed", "simulation.seed"},
	{"log", "statelog.path"},
	{"debug-dir", "logging.dir"},
	{"log-level", "logging.level"},
	{"min-flight-us", "timing.min_flight_us"},
	{"max-flight-us", "timing.max_flight_us"},
	{"max-airport-us", "timing.max_airport_us"},
}

var runWatch bool

func init() {
	rootCmd.AddCommand(runCmd)

	defaults := config.Default()
	flags := runCmd.Flags()
	flags.Int("passengers", defaults.Simulation.Passengers, "number of passengers to transport")
	flags.Int("capacity", defaults.Simulation.Capacity, "most passengers a single flight carries")
	flags.Int("min", defaults.Simulation.MinPassengers, "load at which the hostess departs when nobody is queued")
	flags.Int("max-flights", defaults.Simulation.MaxFlights, "finish after this many flights (0 = until everyone is transported)")
	flags.Uint64("seed", defaults.Simulation.Seed, "seed for travel times (0 = derive from the clock)")
	flags.String("log", defaults.StateLog.Path, "state log file (empty disables it)")
	flags.String("debug-dir", defaults.Logging.Dir, "directory for debug.log (empty logs to stderr)")
	flags.String("log-level", defaults.Logging.Level, "debug log level: debug, info, warn, error")
	flags.Int("min-flight-us", defaults.Timing.MinFlightUs, "shortest leg in microseconds")
	flags.Int("max-flight-us", defaults.Timing.MaxFlightUs, "random spread added to each leg in microseconds")
	flags.Int("max-airport-us", defaults.Timing.MaxAirportUs, "longest trip to the airport in microseconds")
	flags.BoolVarP(&runWatch, "watch", "w", false, "show a live view while the simulation runs")

	for _, f := range runFlags {
		_ = viper.BindPFlag(f.key, flags.Lookup(f.flag))
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Close()
	}()

	bus := event.NewBus(logger)
	collector := report.NewCollector(bus)
	defer collector.Close()

	opts := sim.OptionsFromConfig(cfg)
	opts.Logger = logger
	opts.Bus = bus
	s, err := sim.New(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go watchInterrupts(ctx, sigs, s.Controller(), cancel, cmd.ErrOrStderr())

	var res *sim.Result
	if runWatch {
		res, err = runWatched(cmd.Context(), ctx, s, tui.NewFeed(bus, tui.DefaultFeedLines), opts, cancel)
	} else {
		res, err = s.Run(ctx)
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", s.ID(), err)
	}

	summary := report.Summary{
		RunID:       res.ID,
		Seed:        res.Seed,
		Passengers:  opts.Passengers,
		Capacity:    opts.Capacity,
		Elapsed:     res.Elapsed,
		Transported: res.Transported,
		TurnedAway:  res.TurnedAway,
		Flights:     collector.Flights(),
	}
	out := cmd.OutOrStdout()
	return report.Render(out, summary, styledOutput(out))
}

// runWatched runs the simulation behind the live view. The view stays up
// after the run ends until the user quits it; if the view itself fails the
// run is aborted.
func runWatched(uiCtx, runCtx context.Context, s *sim.Simulation, feed *tui.Feed, opts sim.Options, abort context.CancelFunc) (*sim.Result, error) {
	defer feed.Close()

	var (
		res    *sim.Result
		runErr error
	)
	outcome := make(chan tui.Outcome, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		res, runErr = s.Run(runCtx)
		o := tui.Outcome{Err: runErr}
		if res != nil {
			o.Flights, o.Transported, o.TurnedAway = res.Flights, res.Transported, res.TurnedAway
		}
		outcome <- o
	}()

	uiErr := tui.Run(uiCtx, tui.Options{
		Source:     s.Shared(),
		Feed:       feed,
		Finisher:   s.Controller(),
		Abort:      abort,
		Done:       outcome,
		Passengers: opts.Passengers,
		Capacity:   opts.Capacity,
	})
	if uiErr != nil {
		abort()
	}
	<-finished

	if runErr != nil {
		return nil, runErr
	}
	if uiErr != nil {
		return nil, fmt.Errorf("live view: %w", uiErr)
	}
	return res, nil
}

// newLogger opens the debug log described by cfg, or a discarding logger
// when logging is disabled.
func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(cfg.Dir, logging.ParseLevel(cfg.Level))
}

// finisher ends a run gracefully at the next cycle boundary.
type finisher interface {
	Finish() error
}

// watchInterrupts turns the first interrupt into a graceful finish and the
// second into an abort. It returns when ctx is done or after aborting.
func watchInterrupts(ctx context.Context, sigs <-chan os.Signal, f finisher, abort context.CancelFunc, w io.Writer) {
	finishing := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigs:
			if finishing {
				fmt.Fprintln(w, "Aborting")
				abort()
				return
			}
			finishing = true
			fmt.Fprintln(w, "Finishing after the current flight (interrupt again to abort)")
			if err := f.Finish(); err != nil {
				fmt.Fprintf(w, "Finish failed: %v\n", err)
				abort()
				return
			}
		}
	}
}

func styledOutput(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && report.IsTerminal(f)
}
