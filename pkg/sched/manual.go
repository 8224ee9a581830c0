package sched

import (
	"container/heap"
	"sync"
	"time"
)

// Manual is a virtual-clock Scheduler driven explicitly by the caller.
// Time only moves when Advance or AdvanceTo is called; due callbacks run
// synchronously on the advancing goroutine, in due-time order with
// insertion-order tiebreak.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	entries entryHeap
}

// NewManual creates a Manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Schedule arms fn to fire at now+d on the virtual clock.
func (m *Manual) Schedule(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e := &entry{m: m, fn: fn, due: m.now.Add(d), seq: m.seq, armed: true}
	heap.Push(&m.entries, e)
	return e
}

// Advance moves the clock forward by d, firing due callbacks along the way.
func (m *Manual) Advance(d time.Duration) {
	m.AdvanceTo(m.Now().Add(d))
}

// AdvanceTo moves the clock to t. Each due callback observes Now() equal to
// its own due time, so a callback that rearms itself is fired again within
// the same AdvanceTo call if the new due time is still <= t.
func (m *Manual) AdvanceTo(t time.Time) {
	m.mu.Lock()
	for len(m.entries) > 0 && !m.entries[0].due.After(t) {
		e := heap.Pop(&m.entries).(*entry)
		e.armed = false
		if e.due.After(m.now) {
			m.now = e.due
		}
		fn := e.fn
		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}
	if t.After(m.now) {
		m.now = t
	}
	m.mu.Unlock()
}

// Armed returns the number of pending callbacks.
func (m *Manual) Armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type entry struct {
	m     *Manual
	fn    func()
	due   time.Time
	seq   uint64
	idx   int
	armed bool
}

func (e *entry) Reschedule(d time.Duration) bool {
	if d < 0 {
		d = 0
	}
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	was := e.armed
	if was {
		heap.Remove(&e.m.entries, e.idx)
	}
	e.m.seq++
	e.due = e.m.now.Add(d)
	e.seq = e.m.seq
	e.armed = true
	heap.Push(&e.m.entries, e)
	return was
}

func (e *entry) Cancel() bool {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	if !e.armed {
		return false
	}
	heap.Remove(&e.m.entries, e.idx)
	e.armed = false
	return true
}

// entryHeap is a min-heap ordered by due time, then arming order.
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].idx = i
	h[j].idx = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.idx = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.idx = -1
	*h = old[:n-1]
	return e
}
