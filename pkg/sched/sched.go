package sched

import "time"

// Scheduler combines a clock with the ability to run a callback after a delay.
// Callbacks may call Schedule again, or rearm their own Handle, to build
// self-rescheduling loops.
type Scheduler interface {
	// Now returns the scheduler's current time. Implementations must be
	// monotonic: successive calls never go backwards.
	Now() time.Time

	// Schedule arms fn to run once after d has elapsed. A negative d is
	// treated as zero. The returned Handle stays valid after the callback
	// fires and can be rearmed with Reschedule.
	Schedule(d time.Duration, fn func()) Handle
}

// Handle identifies one armed callback.
type Handle interface {
	// Reschedule rearms the handle to fire after d, replacing any pending
	// wakeup. It reports whether a wakeup was still pending.
	Reschedule(d time.Duration) bool

	// Cancel stops a pending wakeup. It reports whether a wakeup was still
	// pending. Cancelling an already-fired or cancelled handle is a no-op.
	Cancel() bool
}

// Timer returns the production scheduler backed by the runtime's timers.
func Timer() Scheduler { return timerScheduler{} }

type timerScheduler struct{}

func (timerScheduler) Now() time.Time { return time.Now() }

func (timerScheduler) Schedule(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}
	return &timerHandle{t: time.AfterFunc(d, fn)}
}

type timerHandle struct{ t *time.Timer }

func (h *timerHandle) Reschedule(d time.Duration) bool {
	if d < 0 {
		d = 0
	}
	return h.t.Reset(d)
}

func (h *timerHandle) Cancel() bool { return h.t.Stop() }
