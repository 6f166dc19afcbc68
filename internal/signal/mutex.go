package signal

import (
	"context"
	"sync/atomic"

	"github.com/Iron-Ham/airlift/internal/errors"
	"golang.org/x/sync/semaphore"
)

// Mutex is the exclusive gate guarding the shared flight record. It is a
// weight-one semaphore so that a blocked Lock can be released by teardown.
type Mutex struct {
	name string
	sem  *semaphore.Weighted
	ctx  context.Context

	held         atomic.Bool
	acquisitions atomic.Int64
}

func newMutex(ctx context.Context, name string) *Mutex {
	return &Mutex{
		name: name,
		sem:  semaphore.NewWeighted(1),
		ctx:  ctx,
	}
}

// Lock acquires the gate, blocking until it is free.
func (m *Mutex) Lock() error {
	if m.ctx.Err() != nil {
		return errors.NewSignalError("lock", m.name, errors.ErrTornDown)
	}
	if err := m.sem.Acquire(m.ctx, 1); err != nil {
		return errors.NewSignalError("lock", m.name, errors.ErrTornDown)
	}
	m.held.Store(true)
	m.acquisitions.Add(1)
	return nil
}

// Unlock releases the gate. Releasing a gate that is not held is a
// primitive failure.
func (m *Mutex) Unlock() error {
	if !m.held.CompareAndSwap(true, false) {
		return errors.NewSignalError("unlock", m.name, errors.ErrNotHeld)
	}
	m.sem.Release(1)
	if m.ctx.Err() != nil {
		return errors.NewSignalError("unlock", m.name, errors.ErrTornDown)
	}
	return nil
}

// Held reports whether some actor currently holds the gate.
func (m *Mutex) Held() bool { return m.held.Load() }

// Acquisitions returns how many times the gate has been acquired.
func (m *Mutex) Acquisitions() int64 { return m.acquisitions.Load() }
