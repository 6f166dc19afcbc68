// Package signal provides the synchronization primitives shared by every
// airlift actor: one mutual-exclusion gate and a set of directional
// rendezvous signals.
//
// All primitives are backed by [semaphore.Weighted] from golang.org/x/sync.
// A [Signal] starts with nothing pending; [Signal.Up] makes notifications
// pending and [Signal.Down] blocks until one is available and consumes it.
// Binary signals hold at most one pending notification, counting signals up
// to a fixed bound. Raising beyond the bound is a primitive failure
// ([errors.ErrSignalOverflow]) rather than a silently merged wake-up.
//
// Waits never time out. The only way a blocked [Signal.Down] or
// [Mutex.Lock] returns early is [Set.Close], after which every operation on
// the set reports [errors.ErrTornDown].
//
// # The Signal Set
//
//	name                    kind      raised by                awaited by
//	mutex                   mutex     any actor                any actor
//	readyForBoarding        binary    pilot                    hostess
//	readyToFlight           binary    hostess                  pilot
//	passengersWaitInFlight  counting  pilot, departing pass.   passengers
//	planeEmpty              binary    last departing passenger pilot
//
// No actor may hold the [Mutex] while waiting on a [Signal].
//
// [semaphore.Weighted]: https://pkg.go.dev/golang.org/x/sync/semaphore#Weighted
package signal
