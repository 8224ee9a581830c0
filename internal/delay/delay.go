package delay

import (
	"sync"
	"time"

	"github.com/osamaakb/tempo/pkg/sched"
)

// Sink receives a stage's downstream signals: zero or more Next calls
// terminated by at most one Error or Complete, after which nothing follows.
type Sink[T any] interface {
	Next(v T)
	Error(err error)
	Complete()
}

// Options configures a Stage.
type Options struct {
	// Delay shifts every value by this duration. Negative values are
	// clamped to zero.
	Delay time.Duration

	// Until, when non-zero, takes precedence over Delay: it is converted
	// exactly once at construction into a duration from the scheduler's
	// current time, so later clock reads cannot compound jitter.
	Until time.Time

	// Scheduler supplies the clock and timer wakeups. Defaults to
	// sched.Timer().
	Scheduler sched.Scheduler
}

// dispatch loop states. Exactly one wakeup may be armed at a time; the
// tri-state makes rearming a terminated stage unrepresentable.
type state uint8

const (
	stateIdle state = iota
	stateArmed
	stateTerminated
)

type item[T any] struct {
	due   time.Time
	value T
}

// Stage buffers upstream values and replays them to sink after a fixed delay.
// Upstream calls (Next/Error/Complete) must not race each other, but they may
// run on a different goroutine than the dispatch callback, so the queue and
// flags form one mutex-guarded critical section.
type Stage[T any] struct {
	sink  Sink[T]
	sched sched.Scheduler
	delay time.Duration

	mu       sync.Mutex
	queue    []item[T]
	state    state
	stopped  bool
	draining bool
	lateErr  error
	handle   sched.Handle
}

// New builds a Stage emitting into sink.
func New[T any](sink Sink[T], opts Options) *Stage[T] {
	sc := opts.Scheduler
	if sc == nil {
		sc = sched.Timer()
	}
	d := opts.Delay
	if !opts.Until.IsZero() {
		d = opts.Until.Sub(sc.Now())
	}
	if d < 0 {
		d = 0
	}
	return &Stage[T]{sink: sink, sched: sc, delay: d}
}

// Delay returns the effective (clamped, deadline-resolved) delay.
func (s *Stage[T]) Delay() time.Duration { return s.delay }

// Next buffers v for emission at now+delay, arming the dispatch action if it
// is not already armed. It never fails and never blocks on the sink.
func (s *Stage[T]) Next(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateTerminated {
		return
	}
	s.queue = append(s.queue, item[T]{due: s.sched.Now().Add(s.delay), value: v})
	if s.state == stateIdle {
		s.state = stateArmed
		s.arm(s.delay)
	}
}

// NextAt buffers v with an explicit due time. Callers must supply due times
// that never decrease across calls so the queue stays due-ordered; it exists
// for replaying recovered items whose remaining delays differ.
func (s *Stage[T]) NextAt(v T, due time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateTerminated {
		return
	}
	s.queue = append(s.queue, item[T]{due: due, value: v})
	if s.state == stateIdle {
		s.state = stateArmed
		wait := due.Sub(s.sched.Now())
		if wait < 0 {
			wait = 0
		}
		s.arm(wait)
	}
}

// Error discards all buffered values and forwards err to the sink; errors are
// never delayed and never wrapped. When a drain is mid-emission the error
// follows the value currently being emitted rather than interleaving with it.
// The stage is torn down afterwards.
func (s *Stage[T]) Error(err error) {
	s.mu.Lock()
	if s.state == stateTerminated {
		s.mu.Unlock()
		return
	}
	s.queue = nil
	s.terminateLocked()
	if s.draining {
		// The dispatch loop owns the sink right now; it forwards err once
		// the in-flight emission returns.
		s.lateErr = err
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.sink.Error(err)
}

// Complete records upstream completion. With an empty buffer and no drain in
// flight it completes the sink at once; otherwise completion is deferred until
// the dispatch loop has delivered every buffered value.
func (s *Stage[T]) Complete() {
	s.mu.Lock()
	if s.state == stateTerminated {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if len(s.queue) > 0 || s.draining {
		s.mu.Unlock()
		return
	}
	s.terminateLocked()
	s.mu.Unlock()
	s.sink.Complete()
}

// Unsubscribe tears the stage down: the pending wakeup is cancelled
// synchronously and buffered values are discarded without emission. Safe to
// call any number of times.
func (s *Stage[T]) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateTerminated {
		return
	}
	s.queue = nil
	s.terminateLocked()
}

// Pending returns the number of buffered, not-yet-emitted values.
func (s *Stage[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// arm schedules or rearms the single dispatch wakeup. Caller holds s.mu.
func (s *Stage[T]) arm(wait time.Duration) {
	if s.handle == nil {
		s.handle = s.sched.Schedule(wait, s.dispatch)
		return
	}
	s.handle.Reschedule(wait)
}

// terminateLocked cancels any pending wakeup and marks the stage dead.
// Caller holds s.mu.
func (s *Stage[T]) terminateLocked() {
	if s.handle != nil {
		s.handle.Cancel()
	}
	s.state = stateTerminated
}

// dispatch is the recurring action body. It drains every item whose due time
// has passed (one wakeup may cover several if the scheduler coalesced or
// lagged), then either rearms for the new head, completes a stopped stage, or
// goes idle.
func (s *Stage[T]) dispatch() {
	s.mu.Lock()
	if s.state != stateArmed {
		// Cancelled or torn down between the timer firing and us
		// acquiring the lock.
		s.mu.Unlock()
		return
	}
	now := s.sched.Now()
	var ready []T
	for len(s.queue) > 0 && !s.queue[0].due.After(now) {
		ready = append(ready, s.queue[0].value)
		s.queue = s.queue[1:]
	}
	// Stay armed while emitting: a Complete racing the drain must not see
	// the emptied queue and overtake the values below, and an Error waits
	// for the in-flight emission before reaching the sink.
	s.draining = true
	s.mu.Unlock()

	for _, v := range ready {
		s.mu.Lock()
		dead := s.state != stateArmed
		s.mu.Unlock()
		if dead {
			break
		}
		s.sink.Next(v)
	}

	s.mu.Lock()
	s.draining = false
	if s.state != stateArmed {
		// Error or Unsubscribe landed mid-drain.
		err := s.lateErr
		s.lateErr = nil
		s.mu.Unlock()
		if err != nil {
			s.sink.Error(err)
		}
		return
	}
	switch {
	case len(s.queue) > 0:
		wait := s.queue[0].due.Sub(s.sched.Now())
		if wait < 0 {
			wait = 0
		}
		s.arm(wait)
	case s.stopped:
		s.terminateLocked()
		s.mu.Unlock()
		s.sink.Complete()
		return
	default:
		s.state = stateIdle
	}
	s.mu.Unlock()
}
