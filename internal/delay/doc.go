// Package delay implements Tempo's time-shifting stage: a buffer between an
// upstream producer and a downstream sink that re-emits every value a fixed
// duration after it arrived, preserving arrival order and relative spacing.
//
// The stage keeps an unbounded FIFO of not-yet-due values. Because the delay
// is fixed for the stage's lifetime and the scheduler clock is monotonic,
// arrival order is due-time order, so no sorting is needed. A single
// self-rescheduling dispatch action drains everything that is due on each
// wakeup and rearms itself for the next head item, going idle when the buffer
// empties.
//
// Lifecycle rules: an upstream error discards buffered values and reaches the
// sink immediately; completion is held back until every buffered value has
// been delivered. Teardown is idempotent and cancels any pending wakeup.
//
// Example:
//
//	st := delay.New[string](sink, delay.Options{Delay: 200 * time.Millisecond})
//	st.Next("a")
//	st.Next("b")
//	st.Complete() // sink sees a, b, then completion, all after the delay
package delay
