// Package internal contains integration tests that verify the simulation,
// its state log and the run report work together end to end.
package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/airlift/internal/event"
	"github.com/Iron-Ham/airlift/internal/flight"
	"github.com/Iron-Ham/airlift/internal/logging"
	"github.com/Iron-Ham/airlift/internal/report"
	"github.com/Iron-Ham/airlift/internal/sim"
	"github.com/Iron-Ham/airlift/internal/testutil"
)

func integrationOptions(t *testing.T, bus *event.Bus, rec *testutil.Recorder) sim.Options {
	t.Helper()
	return sim.Options{
		Passengers:    12,
		Capacity:      4,
		MinPassengers: 2,
		Seed:          99,
		FlightMin:     50 * time.Microsecond,
		FlightSpread:  200 * time.Microsecond,
		AirportSpread: 500 * time.Microsecond,
		StateLogPath:  filepath.Join(t.TempDir(), "airlift.log"),
		Sinks:         []flight.Sink{rec},
		Logger:        logging.NopLogger(),
		Bus:           bus,
	}
}

func runSimulation(t *testing.T, s *sim.Simulation) *sim.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	res, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return res
}

// TestSimulationReportIntegration runs a full simulation and checks that the
// state log, the recorded states and the event-driven report agree.
func TestSimulationReportIntegration(t *testing.T) {
	bus := event.NewBus(logging.NopLogger())
	collector := report.NewCollector(bus)
	defer collector.Close()
	rec := testutil.NewRecorder()

	opts := integrationOptions(t, bus, rec)
	s, err := sim.New(opts)
	if err != nil {
		t.Fatalf("sim.New() error = %v", err)
	}
	res := runSimulation(t, s)

	if res.Transported != opts.Passengers || res.TurnedAway != 0 {
		t.Errorf("transported/turned away = %d/%d, want %d/0", res.Transported, res.TurnedAway, opts.Passengers)
	}

	flights := collector.Flights()
	if len(flights) != res.Flights {
		t.Fatalf("report has %d flights, run flew %d", len(flights), res.Flights)
	}
	total := 0
	for _, f := range flights {
		if f.Left != f.Boarded {
			t.Errorf("flight %d: %d left, %d boarded", f.Flight, f.Left, f.Boarded)
		}
		if f.Boarded > opts.Capacity {
			t.Errorf("flight %d carried %d, capacity %d", f.Flight, f.Boarded, opts.Capacity)
		}
		if f.Boarded > 0 && !f.Emptied {
			t.Errorf("flight %d was never emptied", f.Flight)
		}
		total += f.Boarded
	}
	if total != res.Transported {
		t.Errorf("report total %d, result transported %d", total, res.Transported)
	}
	if !flights[len(flights)-1].Last {
		t.Error("final flight not marked last")
	}

	done, runErr := collector.Finished()
	if !done || runErr != nil {
		t.Errorf("Finished() = %v, %v; want true, nil", done, runErr)
	}

	content, err := os.ReadFile(opts.StateLogPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	log := string(content)
	for i := range res.Flights {
		for _, note := range []string{"boarding started", "departed", "arrived", "returning"} {
			want := "Flight " + strconv.Itoa(i+1) + " " + note
			if !strings.Contains(log, want) {
				t.Errorf("state log missing %q", want)
			}
		}
	}
	if got, want := strings.Count(log, "Flight "), 4*res.Flights; got != want {
		t.Errorf("state log has %d flight notes, want %d", got, want)
	}

	var out bytes.Buffer
	err = report.Render(&out, report.Summary{
		RunID:       res.ID,
		Seed:        res.Seed,
		Passengers:  opts.Passengers,
		Capacity:    opts.Capacity,
		Elapsed:     res.Elapsed,
		Transported: res.Transported,
		Flights:     flights,
	}, false)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out.String(), res.ID) || !strings.Contains(out.String(), "12/12") {
		t.Errorf("rendered summary:\n%s", out.String())
	}
}

// TestGracefulFinishIntegration finishes the run as soon as the first flight
// is announced. That flight still completes and nobody is left stranded.
// Handlers run on the publishing goroutine outside the gate, so Finish can
// be called inline.
func TestGracefulFinishIntegration(t *testing.T) {
	bus := event.NewBus(logging.NopLogger())
	collector := report.NewCollector(bus)
	defer collector.Close()
	rec := testutil.NewRecorder()

	opts := integrationOptions(t, bus, rec)
	s, err := sim.New(opts)
	if err != nil {
		t.Fatalf("sim.New() error = %v", err)
	}

	var once sync.Once
	finished := make(chan error, 1)
	bus.Subscribe(event.TypeFlightAnnounced, func(event.Event) {
		once.Do(func() {
			finished <- s.Controller().Finish()
		})
	})

	res := runSimulation(t, s)
	if err := <-finished; err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	if res.Transported+res.TurnedAway != opts.Passengers {
		t.Errorf("transported %d + turned away %d != %d passengers", res.Transported, res.TurnedAway, opts.Passengers)
	}
	for id, phase := range res.Outcomes {
		if phase != flight.AtDestination && phase != flight.TurnedAway {
			t.Errorf("passenger %d ended %v", id, phase)
		}
	}
	if collector.TurnedAway() != res.TurnedAway {
		t.Errorf("report turned away %d, result %d", collector.TurnedAway(), res.TurnedAway)
	}

	last, ok := rec.Last()
	if !ok {
		t.Fatal("no state recorded")
	}
	if !last.Finished || last.InFlight != 0 || len(last.Queue) != 0 {
		t.Errorf("final state finished=%v inFlight=%d queue=%v", last.Finished, last.InFlight, last.Queue)
	}
}
