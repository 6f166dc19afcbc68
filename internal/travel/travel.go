// Package travel produces the randomized, bounded delays that stand in for
// wall-clock travel: the plane's legs and each passenger's trip to the
// airport.
package travel

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Traveler suspends the caller for one simulated trip.
type Traveler interface {
	Travel(ctx context.Context) (time.Duration, error)
}

// Planner draws durations uniformly from [Min, Min+Spread) and sleeps for
// them. It is safe for concurrent use.
type Planner struct {
	min    time.Duration
	spread time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPlanner returns a Planner seeded with seed. A negative spread is
// treated as zero.
func NewPlanner(seed uint64, min, spread time.Duration) *Planner {
	if spread < 0 {
		spread = 0
	}
	if min < 0 {
		min = 0
	}
	return &Planner{
		min:    min,
		spread: spread,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Fixed returns a Planner that always travels for d.
func Fixed(d time.Duration) *Planner {
	return NewPlanner(0, d, 0)
}

// Duration draws the next trip duration.
func (p *Planner) Duration() time.Duration {
	if p.spread == 0 {
		return p.min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.min + time.Duration(p.rng.Int64N(int64(p.spread)))
}

// Max returns the longest duration the planner can produce.
func (p *Planner) Max() time.Duration {
	return p.min + p.spread
}

// Travel draws a duration and sleeps for it. The trip is never skipped; it
// only ends early if ctx is canceled because the simulation is aborting.
func (p *Planner) Travel(ctx context.Context) (time.Duration, error) {
	d := p.Duration()
	return d, Sleep(ctx, d)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
