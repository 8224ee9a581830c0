// Package sched provides Tempo's time seam: a small Scheduler interface
// combining a clock with cancellable delayed callbacks.
//
// Two implementations are provided. Timer() is the production scheduler
// backed by time.AfterFunc. NewManual(start) is a deterministic virtual-clock
// scheduler for tests: armed callbacks sit in a min-heap by due time and fire
// in order when the test advances the clock.
//
// Example:
//
//	s := sched.Timer()
//	h := s.Schedule(100*time.Millisecond, func() { fmt.Println("due") })
//	// rearm the same handle for a later wakeup
//	h.Reschedule(250 * time.Millisecond)
//	h.Cancel()
package sched
