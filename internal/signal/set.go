package signal

import "context"

// Names of the primitives in a Set.
const (
	NameMutex                  = "mutex"
	NameReadyForBoarding       = "readyForBoarding"
	NameReadyToFlight          = "readyToFlight"
	NamePassengersWaitInFlight = "passengersWaitInFlight"
	NamePlaneEmpty             = "planeEmpty"
)

// Set is the complete group of primitives shared by one simulation. Extra
// signals created through NewBinary and NewCounting share its lifetime.
type Set struct {
	ctx    context.Context
	cancel context.CancelFunc

	Mutex                  *Mutex
	ReadyForBoarding       *Signal
	ReadyToFlight          *Signal
	PassengersWaitInFlight *Signal
	PlaneEmpty             *Signal
}

// NewSet creates a signal set for a plane of the given capacity. The
// passengersWaitInFlight signal is bounded by capacity.
func NewSet(capacity int) *Set {
	ctx, cancel := context.WithCancel(context.Background())
	return &Set{
		ctx:                    ctx,
		cancel:                 cancel,
		Mutex:                  newMutex(ctx, NameMutex),
		ReadyForBoarding:       newSignal(ctx, NameReadyForBoarding, Binary, 1),
		ReadyToFlight:          newSignal(ctx, NameReadyToFlight, Binary, 1),
		PassengersWaitInFlight: newSignal(ctx, NamePassengersWaitInFlight, Counting, int64(capacity)),
		PlaneEmpty:             newSignal(ctx, NamePlaneEmpty, Binary, 1),
	}
}

// NewBinary creates an additional binary signal torn down with the set.
func (s *Set) NewBinary(name string) *Signal {
	return newSignal(s.ctx, name, Binary, 1)
}

// NewCounting creates an additional counting signal torn down with the set.
func (s *Set) NewCounting(name string, bound int) *Signal {
	return newSignal(s.ctx, name, Counting, int64(bound))
}

// Signals returns the four rendezvous signals of the set, in table order.
func (s *Set) Signals() []*Signal {
	return []*Signal{s.ReadyForBoarding, s.ReadyToFlight, s.PassengersWaitInFlight, s.PlaneEmpty}
}

// Close tears the set down. Every blocked wait returns ErrTornDown and all
// later operations fail. Close is idempotent.
func (s *Set) Close() {
	s.cancel()
}

// Closed reports whether the set has been torn down.
func (s *Set) Closed() bool {
	return s.ctx.Err() != nil
}

// Done returns a channel closed on teardown.
func (s *Set) Done() <-chan struct{} {
	return s.ctx.Done()
}
