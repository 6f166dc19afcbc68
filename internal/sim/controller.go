package sim

import (
	"sync"

	"github.com/Iron-Ham/airlift/internal/boarding"
	"github.com/Iron-Ham/airlift/internal/flight"
	"github.com/Iron-Ham/airlift/internal/logging"
	"github.com/Iron-Ham/airlift/internal/signal"
)

// Controller raises the finished flag on behalf of an outside party, such
// as an interrupt handler, and wakes the actors that could otherwise wait
// forever for a cycle that will not happen.
//
// The flag is only read at cycle boundaries, so the flight in progress
// always completes before the run winds down.
type Controller struct {
	shared *flight.Shared
	set    *signal.Set
	desk   *boarding.Desk
	logger *logging.Logger

	once sync.Once
	err  error
}

// Finish sets the finished flag and nudges the hostess if she is waiting
// at the desk for passengers. It is safe to call more than once and from
// any goroutine; only the first call has an effect.
func (c *Controller) Finish() error {
	c.once.Do(func() {
		c.err = c.shared.Update(func(tx *flight.Tx) error {
			tx.State().Finished = true
			tx.Save()
			return nil
		})
		if c.err != nil {
			return
		}
		c.err = c.desk.Nudge()
		c.logger.Info("finish requested")
	})
	return c.err
}

// pilotDone wakes a hostess parked on readyForBoarding once the pilot has
// stopped. No announcement is pending at that point: the pilot only exits
// at a cycle boundary, after the hostess consumed the last one.
func (c *Controller) pilotDone() error {
	return c.set.ReadyForBoarding.Up()
}
