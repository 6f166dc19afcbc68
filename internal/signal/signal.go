package signal

import (
	"context"
	"sync/atomic"

	"github.com/Iron-Ham/airlift/internal/errors"
	"golang.org/x/sync/semaphore"
)

// Kind distinguishes single-notification signals from counting ones.
type Kind int

const (
	// Binary signals hold at most one pending notification.
	Binary Kind = iota
	// Counting signals hold up to their bound of pending notifications.
	Counting
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Binary:
		return "binary"
	case Counting:
		return "counting"
	default:
		return "unknown"
	}
}

// Signal is a rendezvous primitive with one producer direction and one
// consumer direction. It is safe for concurrent use.
type Signal struct {
	name  string
	kind  Kind
	bound int64

	sem *semaphore.Weighted
	ctx context.Context

	// pending counts raised notifications not yet consumed. It is advanced
	// before the semaphore is released so it never undercounts tokens.
	pending atomic.Int64
	raised  atomic.Int64
}

func newSignal(ctx context.Context, name string, kind Kind, bound int64) *Signal {
	if kind == Binary || bound < 1 {
		bound = 1
	}
	sem := semaphore.NewWeighted(bound)
	// A fresh semaphore is fully available; take every unit so the signal
	// starts with nothing pending.
	sem.TryAcquire(bound)

	return &Signal{
		name:  name,
		kind:  kind,
		bound: bound,
		sem:   sem,
		ctx:   ctx,
	}
}

// Name returns the signal's name.
func (s *Signal) Name() string { return s.name }

// Kind returns whether the signal is binary or counting.
func (s *Signal) Kind() Kind { return s.kind }

// Bound returns the maximum number of pending notifications.
func (s *Signal) Bound() int64 { return s.bound }

// Up raises one notification.
func (s *Signal) Up() error {
	return s.UpN(1)
}

// UpN raises n notifications at once. It fails without raising anything if
// the result would exceed the signal's bound or the set has been torn down.
func (s *Signal) UpN(n int64) error {
	if n <= 0 {
		return errors.NewSignalError("up", s.name, errors.ErrInvalidInput)
	}
	if s.ctx.Err() != nil {
		return errors.NewSignalError("up", s.name, errors.ErrTornDown)
	}
	for {
		cur := s.pending.Load()
		if cur+n > s.bound {
			return errors.NewSignalError("up", s.name, errors.ErrSignalOverflow)
		}
		if s.pending.CompareAndSwap(cur, cur+n) {
			break
		}
	}
	s.sem.Release(n)
	s.raised.Add(n)
	return nil
}

// Down blocks until a notification is pending and consumes it. It only
// returns early when the set is torn down.
func (s *Signal) Down() error {
	if s.ctx.Err() != nil {
		return errors.NewSignalError("down", s.name, errors.ErrTornDown)
	}
	if err := s.sem.Acquire(s.ctx, 1); err != nil {
		return errors.NewSignalError("down", s.name, errors.ErrTornDown)
	}
	s.pending.Add(-1)
	return nil
}

// Pending returns the number of raised notifications not yet consumed.
func (s *Signal) Pending() int64 { return s.pending.Load() }

// Raised returns the total number of notifications raised so far.
func (s *Signal) Raised() int64 { return s.raised.Load() }
