// internal/clock/clock.go
//
// Scheduled-callback abstraction.
//
// Context
// -------
// The booking workflow paces its request, dismisses toasts, and delays the
// confirmation redirect with timers.  Every one of those goes through a
// Clock so tests can swap in Fake and step time deterministically.
//
//   - Real   wraps time.AfterFunc; callbacks run on their own goroutine.
//   - Fake   fires callbacks synchronously inside Advance, in due order.
//
// Notes
// -----
// • Timer.Stop reports whether the call prevented the callback, exactly as
//   *time.Timer does.
// • Oxford commas, two spaces after periods.
package clock

import "time"

// Timer is a handle to one scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks and reports the current time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real returns the wall-clock implementation.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
