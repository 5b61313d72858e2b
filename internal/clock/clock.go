// Package clock abstracts time and single-shot timers so that the
// gesture decoder's long-press and key-repeat behavior can be driven
// deterministically in tests without wall-clock waits.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Timer is a cancelable scheduled callback. Cancel reports whether the
// callback was prevented from running; canceling a timer that already
// fired is a no-op, not an error.
type Timer interface {
	Cancel() bool
}

// Scheduler schedules single-shot callbacks. Periodic behavior (key
// repeat) is built by rescheduling from inside the callback.
type Scheduler interface {
	Clock
	AfterFunc(d time.Duration, fn func()) Timer
}

// System is the production scheduler backed by the runtime timer heap.
type System struct{}

// NewSystem returns the wall-clock scheduler.
func NewSystem() *System { return &System{} }

// Now returns the current time with a monotonic clock reading.
func (*System) Now() time.Time { return time.Now() }

// AfterFunc schedules fn after d on the runtime timer heap.
func (*System) AfterFunc(d time.Duration, fn func()) Timer {
	return systemTimer{time.AfterFunc(d, fn)}
}

type systemTimer struct {
	t *time.Timer
}

func (s systemTimer) Cancel() bool { return s.t.Stop() }
