package sched

import (
	"testing"
	"time"
)

func TestManualFiresInDueOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []string
	m.Schedule(30*time.Millisecond, func() { got = append(got, "c") })
	m.Schedule(10*time.Millisecond, func() { got = append(got, "a") })
	m.Schedule(20*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(50 * time.Millisecond)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("fire order: %v", got)
	}
	if m.Armed() != 0 {
		t.Fatalf("armed: %d", m.Armed())
	}
}

func TestManualTieBreakByArmingOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []int
	m.Schedule(10*time.Millisecond, func() { got = append(got, 1) })
	m.Schedule(10*time.Millisecond, func() { got = append(got, 2) })
	m.Advance(10 * time.Millisecond)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("tie order: %v", got)
	}
}

func TestManualCallbackObservesOwnDueTime(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var at time.Time
	m.Schedule(25*time.Millisecond, func() { at = m.Now() })
	m.Advance(time.Second)
	want := time.Unix(0, 0).Add(25 * time.Millisecond)
	if !at.Equal(want) {
		t.Fatalf("callback saw %v want %v", at, want)
	}
	if !m.Now().Equal(time.Unix(0, 0).Add(time.Second)) {
		t.Fatalf("clock did not land on target: %v", m.Now())
	}
}

func TestManualCancel(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	h := m.Schedule(10*time.Millisecond, func() { fired = true })
	if !h.Cancel() {
		t.Fatalf("cancel should report pending")
	}
	if h.Cancel() {
		t.Fatalf("second cancel should be a no-op")
	}
	m.Advance(time.Second)
	if fired {
		t.Fatalf("cancelled callback fired")
	}
}

func TestManualReschedule(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var times []time.Time
	h := m.Schedule(10*time.Millisecond, func() { times = append(times, m.Now()) })
	if !h.Reschedule(40 * time.Millisecond) {
		t.Fatalf("reschedule should report pending")
	}
	m.Advance(20 * time.Millisecond)
	if len(times) != 0 {
		t.Fatalf("fired before rescheduled due time")
	}
	m.Advance(20 * time.Millisecond)
	if len(times) != 1 || !times[0].Equal(time.Unix(0, 0).Add(40*time.Millisecond)) {
		t.Fatalf("fire times: %v", times)
	}
	// rearm after firing: same handle identity, new wakeup
	if h.Reschedule(5 * time.Millisecond) {
		t.Fatalf("reschedule after fire should report not pending")
	}
	m.Advance(5 * time.Millisecond)
	if len(times) != 2 {
		t.Fatalf("rearmed handle did not fire: %v", times)
	}
}

func TestManualSelfRescheduling(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var ticks []time.Time
	var h Handle
	h = m.Schedule(10*time.Millisecond, func() {
		ticks = append(ticks, m.Now())
		if len(ticks) < 3 {
			h.Reschedule(10 * time.Millisecond)
		}
	})
	m.Advance(time.Second)
	if len(ticks) != 3 {
		t.Fatalf("ticks: %v", ticks)
	}
	for i, tk := range ticks {
		want := time.Unix(0, 0).Add(time.Duration(i+1) * 10 * time.Millisecond)
		if !tk.Equal(want) {
			t.Fatalf("tick %d at %v want %v", i, tk, want)
		}
	}
}

func TestTimerSchedulerFires(t *testing.T) {
	s := Timer()
	done := make(chan struct{})
	s.Schedule(5*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer scheduler did not fire")
	}
}

func TestTimerSchedulerCancel(t *testing.T) {
	s := Timer()
	fired := make(chan struct{}, 1)
	h := s.Schedule(50*time.Millisecond, func() { fired <- struct{}{} })
	if !h.Cancel() {
		t.Fatalf("cancel should report pending")
	}
	select {
	case <-fired:
		t.Fatalf("cancelled timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}
