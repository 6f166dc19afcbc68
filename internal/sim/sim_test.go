package sim

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/airlift/internal/config"
	"github.com/Iron-Ham/airlift/internal/errors"
	"github.com/Iron-Ham/airlift/internal/event"
	"github.com/Iron-Ham/airlift/internal/flight"
	"github.com/Iron-Ham/airlift/internal/logging"
	"github.com/Iron-Ham/airlift/internal/signal"
	"github.com/Iron-Ham/airlift/internal/testutil"
	"github.com/google/go-cmp/cmp"
)

const testTimeout = 10 * time.Second

// exclusionSink checks that every persistence write happens with the gate
// held and never overlaps another write.
type exclusionSink struct {
	set      *signal.Set
	capacity int

	inside     atomic.Int32
	violations atomic.Int32
	overfull   atomic.Int32
	writes     atomic.Int64
}

func (s *exclusionSink) check(st *flight.State) {
	if s.inside.Add(1) != 1 || !s.set.Mutex.Held() {
		s.violations.Add(1)
	}
	if st.Boarded > s.capacity {
		s.overfull.Add(1)
	}
	runtime.Gosched()
	s.writes.Add(1)
	s.inside.Add(-1)
}

func (s *exclusionSink) SaveState(st *flight.State) error {
	s.check(st)
	return nil
}

func (s *exclusionSink) SaveNote(_ flight.Note, st *flight.State) error {
	s.check(st)
	return nil
}

// flightLedger tallies boarding and egress per flight from the event bus.
type flightLedger struct {
	mu      sync.Mutex
	boarded map[int]int
	left    map[int]int
	emptied map[int]int
}

func newFlightLedger(bus *event.Bus) *flightLedger {
	l := &flightLedger{
		boarded: make(map[int]int),
		left:    make(map[int]int),
		emptied: make(map[int]int),
	}
	bus.SubscribeAll(func(e event.Event) {
		l.mu.Lock()
		defer l.mu.Unlock()
		switch ev := e.(type) {
		case event.BoardingCompleteEvent:
			l.boarded[ev.Flight] = ev.Boarded
		case event.PassengerLeftEvent:
			l.left[ev.Flight]++
		case event.PlaneEmptiedEvent:
			l.emptied[ev.Flight]++
		}
	})
	return l
}

func quickOptions(passengers, capacity, minimum int) Options {
	return Options{
		Passengers:    passengers,
		Capacity:      capacity,
		MinPassengers: minimum,
		Seed:          7,
		FlightMin:     0,
		FlightSpread:  200 * time.Microsecond,
		AirportSpread: 500 * time.Microsecond,
	}
}

func runWithTimeout(t *testing.T, ctx context.Context, s *Simulation) (*Result, error) {
	t.Helper()

	type outcome struct {
		res *Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := s.Run(ctx)
		ch <- outcome{res, err}
	}()
	select {
	case o := <-ch:
		return o.res, o.err
	case <-time.After(testTimeout):
		t.Fatalf("Run() did not return within %v", testTimeout)
		return nil, nil
	}
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"no passengers", func(o *Options) { o.Passengers = 0 }},
		{"no capacity", func(o *Options) { o.Capacity = 0 }},
		{"minimum above capacity", func(o *Options) { o.MinPassengers = o.Capacity + 1 }},
		{"zero minimum", func(o *Options) { o.MinPassengers = 0 }},
		{"negative flight limit", func(o *Options) { o.MaxFlights = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := quickOptions(3, 2, 1)
			tt.modify(&opts)
			if _, err := New(opts); !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("New() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestSimulation_CapacityTwoThreePassengers(t *testing.T) {
	rec := testutil.NewRecorder()
	opts := quickOptions(3, 2, 2)
	opts.Sinks = []flight.Sink{rec}

	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := runWithTimeout(t, context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if diff := cmp.Diff([]int{2, 1}, res.PerFlight); diff != "" {
		t.Errorf("PerFlight mismatch (-want +got):\n%s", diff)
	}
	if res.Flights != 2 || res.Transported != 3 || res.TurnedAway != 0 {
		t.Errorf("Result = %+v, want 2 flights carrying all 3", res)
	}

	var departed []string
	for _, n := range rec.Notes() {
		if n.Note == flight.NoteFlightDeparted {
			departed = append(departed, n.String())
		}
	}
	if diff := cmp.Diff([]string{"1 departed", "2 departed"}, departed); diff != "" {
		t.Errorf("departures mismatch (-want +got):\n%s", diff)
	}

	// The first two to queue fill flight 1; the third waits for flight 2.
	order := queueOrder(rec.States())
	if len(order) != 3 {
		t.Fatalf("queue order = %v, want 3 passengers", order)
	}
	for i, id := range order {
		want := 1
		if i == 2 {
			want = 2
		}
		if got := s.passengers[id].Flight(); got != want {
			t.Errorf("passenger %d (queued #%d) flew on flight %d, want %d", id, i+1, got, want)
		}
	}

	if got := s.Signals().PlaneEmpty.Raised(); got != 2 {
		t.Errorf("PlaneEmpty raised %d times, want 2", got)
	}
	// One raise per flight plus the wake-up after the pilot stopped.
	if got := s.Signals().ReadyForBoarding.Raised(); got != 3 {
		t.Errorf("ReadyForBoarding raised %d times, want 3", got)
	}
}

// queueOrder returns passenger ids in the order they joined the queue.
func queueOrder(states []flight.State) []int {
	var order []int
	seen := make(map[int]bool)
	for _, st := range states {
		for _, id := range st.Queue {
			if !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
	}
	return order
}

func TestSimulation_PilotPhaseCycle(t *testing.T) {
	rec := testutil.NewRecorder()
	opts := quickOptions(4, 2, 1)
	opts.Sinks = []flight.Sink{rec}

	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := runWithTimeout(t, context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	phases := rec.PilotPhases()
	if len(phases) != 5*res.Flights {
		t.Fatalf("saw %d pilot phases for %d flights: %v", len(phases), res.Flights, phases)
	}
	cycle := []flight.PilotPhase{
		flight.FlyingBack,
		flight.ReadyForBoarding,
		flight.WaitingForBoarding,
		flight.Flying,
		flight.DroppingPassengers,
	}
	for i, p := range phases {
		if p != cycle[i%len(cycle)] {
			t.Errorf("phase %d = %v, want %v", i, p, cycle[i%len(cycle)])
		}
	}
}

func TestSimulation_StressMutualExclusion(t *testing.T) {
	seeds := []uint64{1, 2, 3, 5, 8, 13, 21, 34}
	if testing.Short() {
		seeds = seeds[:2]
	}

	for _, seed := range seeds {
		opts := quickOptions(9, 3, 1)
		opts.Seed = seed
		sink := &exclusionSink{capacity: opts.Capacity}
		opts.Sinks = []flight.Sink{sink}
		bus := event.NewBus(nil)
		opts.Bus = bus
		ledger := newFlightLedger(bus)

		s, err := New(opts)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		sink.set = s.Signals()

		res, err := runWithTimeout(t, context.Background(), s)
		if err != nil {
			t.Fatalf("seed %d: Run() error = %v", seed, err)
		}

		if v := sink.violations.Load(); v != 0 {
			t.Errorf("seed %d: %d writes outside exclusive access", seed, v)
		}
		if v := sink.overfull.Load(); v != 0 {
			t.Errorf("seed %d: %d writes with more boarded than capacity", seed, v)
		}
		if res.Transported != opts.Passengers {
			t.Errorf("seed %d: transported %d of %d", seed, res.Transported, opts.Passengers)
		}
		for id, phase := range res.Outcomes {
			if phase != flight.AtDestination {
				t.Errorf("seed %d: passenger %d ended %v", seed, id, phase)
			}
		}

		ledger.mu.Lock()
		nonEmpty := 0
		for f := 1; f <= res.Flights; f++ {
			if ledger.boarded[f] != ledger.left[f] {
				t.Errorf("seed %d flight %d: boarded %d, egressed %d", seed, f, ledger.boarded[f], ledger.left[f])
			}
			want := 0
			if ledger.boarded[f] > 0 {
				want = 1
				nonEmpty++
			}
			if ledger.emptied[f] != want {
				t.Errorf("seed %d flight %d: plane emptied %d times, want %d", seed, f, ledger.emptied[f], want)
			}
		}
		ledger.mu.Unlock()

		if got := s.Signals().PlaneEmpty.Raised(); got != int64(nonEmpty) {
			t.Errorf("seed %d: PlaneEmpty raised %d times, want %d", seed, got, nonEmpty)
		}
	}
}

func TestSimulation_FlightLimit(t *testing.T) {
	opts := quickOptions(10, 2, 2)
	opts.MaxFlights = 2
	// Give the passengers time to queue so both flights fill up.
	opts.FlightMin = 5 * time.Millisecond
	opts.AirportSpread = time.Millisecond

	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := runWithTimeout(t, context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Flights != 2 {
		t.Errorf("Flights = %d, want 2", res.Flights)
	}
	if res.Transported != 4 || res.TurnedAway != 6 {
		t.Errorf("transported %d, turned away %d, want 4/6", res.Transported, res.TurnedAway)
	}
	for id, phase := range res.Outcomes {
		if !phase.Terminal() {
			t.Errorf("passenger %d left in %v", id, phase)
		}
	}
	if got := s.Signals().ReadyForBoarding.Raised(); got != 3 {
		t.Errorf("ReadyForBoarding raised %d times, want 3", got)
	}
}

func TestSimulation_ControllerFinish(t *testing.T) {
	opts := quickOptions(12, 2, 1)
	opts.AirportSpread = 20 * time.Millisecond
	bus := event.NewBus(nil)
	opts.Bus = bus

	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var once sync.Once
	bus.Subscribe(event.TypeFlightArrived, func(e event.Event) {
		once.Do(func() {
			go func() { _ = s.Controller().Finish() }()
		})
	})

	res, err := runWithTimeout(t, context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Transported+res.TurnedAway != opts.Passengers {
		t.Errorf("transported %d + turned away %d != %d", res.Transported, res.TurnedAway, opts.Passengers)
	}
	for id, phase := range res.Outcomes {
		if !phase.Terminal() {
			t.Errorf("passenger %d left in %v", id, phase)
		}
	}
	sum := 0
	for _, n := range res.PerFlight {
		sum += n
	}
	if sum != res.Transported {
		t.Errorf("PerFlight %v sums to %d, transported %d", res.PerFlight, sum, res.Transported)
	}

	// Finishing after the run is over reports the torn-down set.
	if err := s.Controller().Finish(); err != nil && !errors.Is(err, errors.ErrTornDown) {
		t.Errorf("late Finish() error = %v", err)
	}
}

func TestSimulation_FinishWhilePilotWaitsForBoarding(t *testing.T) {
	opts := quickOptions(12, 4, 2)
	bus := event.NewBus(nil)
	opts.Bus = bus

	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Hold the hostess in her flight 1 handler until the pilot has passed
	// the boundary check and is waiting for flight 2 to board. The flag
	// goes up before the hostess sees that announcement.
	var once sync.Once
	reached := make(chan bool, 1)
	finished := make(chan error, 1)
	bus.Subscribe(event.TypeBoardingComplete, func(e event.Event) {
		if e.(event.BoardingCompleteEvent).Flight != 1 {
			return
		}
		once.Do(func() {
			deadline := time.Now().Add(testTimeout / 2)
			ok := false
			for time.Now().Before(deadline) {
				st, err := s.Shared().Snapshot()
				if err != nil {
					break
				}
				if st.FlightNumber == 2 && st.Pilot == flight.WaitingForBoarding {
					ok = true
					break
				}
				time.Sleep(100 * time.Microsecond)
			}
			reached <- ok
			finished <- s.Controller().Finish()
		})
	})

	res, err := runWithTimeout(t, context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !<-reached {
		t.Fatal("pilot never waited for flight 2 to board")
	}
	if err := <-finished; err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	if res.Flights != 2 {
		t.Errorf("Flights = %d, want 2", res.Flights)
	}
	if res.Transported+res.TurnedAway != opts.Passengers {
		t.Errorf("transported %d + turned away %d != %d", res.Transported, res.TurnedAway, opts.Passengers)
	}
	for id, phase := range res.Outcomes {
		if !phase.Terminal() {
			t.Errorf("passenger %d left in %v", id, phase)
		}
	}
}

// failingSink fails the first save that shows the target passenger seated.
type failingSink struct {
	target int
	err    error
	fired  atomic.Bool
}

func (f *failingSink) SaveState(st *flight.State) error {
	if st.Passengers[f.target] == flight.InFlight && f.fired.CompareAndSwap(false, true) {
		return f.err
	}
	return nil
}

func (f *failingSink) SaveNote(flight.Note, *flight.State) error { return nil }

func TestSimulation_PassengerFailureAborts(t *testing.T) {
	boom := errors.New("disk full")
	var logs bytes.Buffer
	opts := quickOptions(3, 2, 2)
	opts.Sinks = []flight.Sink{&failingSink{target: 0, err: boom}}
	opts.Logger = logging.NewWithWriter(&logs, logging.LevelError)

	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = runWithTimeout(t, context.Background(), s)
	if err == nil {
		t.Fatal("Run() error = nil after a passenger failed")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want the passenger's failure", err)
	}
	var actorErr *errors.ActorError
	if !errors.As(err, &actorErr) || actorErr.Actor != "passenger-0" {
		t.Errorf("Run() error = %v, want a passenger ActorError", err)
	}
	if !s.Signals().Closed() {
		t.Error("signal set still open after a passenger failed")
	}
	for _, want := range []string{`"msg":"simulation aborted"`, `"severity":"error"`, `"fatal":false`} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("debug log missing %s:\n%s", want, logs.String())
		}
	}
}

func TestSimulation_FinishBeforeRun(t *testing.T) {
	opts := quickOptions(3, 2, 1)
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Controller().Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	res, err := runWithTimeout(t, context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Flights != 0 || res.TurnedAway != 3 {
		t.Errorf("Result = %+v, want no flights and everyone turned away", res)
	}
	if got := s.Signals().ReadyForBoarding.Raised(); got != 1 {
		t.Errorf("ReadyForBoarding raised %d times, want only the wake-up", got)
	}
}

func TestSimulation_CancelAborts(t *testing.T) {
	opts := quickOptions(4, 2, 2)
	opts.AirportSpread = time.Hour

	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err = runWithTimeout(t, ctx, s)
	if !errors.Is(err, errors.ErrAborted) {
		t.Fatalf("Run() error = %v, want ErrAborted", err)
	}
	if !s.Signals().Closed() {
		t.Error("signal set still open after abort")
	}
}

func TestSimulation_WritesStateLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airlift.log")
	opts := quickOptions(3, 3, 3)
	opts.StateLogPath = path

	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := runWithTimeout(t, context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(content)
	for _, want := range []string{
		"Airlift - Description of the internal state",
		"Flight 1 boarding started",
		"Flight 1 departed with 3 passengers",
		"Flight 1 arrived",
		"Flight 1 returning",
		"ATDS",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("state log missing %q", want)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.MaxFlights = 4
	cfg.Timing.MinFlightUs = 250

	opts := OptionsFromConfig(cfg)
	if opts.Passengers != 21 || opts.Capacity != 10 || opts.MinPassengers != 5 {
		t.Errorf("sizes = %d/%d/%d, want 21/10/5", opts.Passengers, opts.Capacity, opts.MinPassengers)
	}
	if opts.MaxFlights != 4 {
		t.Errorf("MaxFlights = %d, want 4", opts.MaxFlights)
	}
	if opts.FlightMin != 250*time.Microsecond {
		t.Errorf("FlightMin = %v, want 250µs", opts.FlightMin)
	}
	if opts.StateLogPath != "airlift.log" {
		t.Errorf("StateLogPath = %q, want airlift.log", opts.StateLogPath)
	}
	if err := opts.validate(); err != nil {
		t.Errorf("validate() error = %v", err)
	}
}
