package linesvc

import (
	"sync"

	"github.com/osamaakb/tempo/internal/parked"
	"github.com/osamaakb/tempo/pkg/log"
)

const subscriberBuffer = 256

type subscriber struct {
	id     string
	filter celFilter
	ch     chan Event

	// err is written before done is closed and read only after.
	err  error
	done chan struct{}
}

// fanout receives a line's released events and distributes them to the
// attached subscribers. It also owns the durable side of release: an event
// is unparked as soon as the stage hands it over.
type fanout struct {
	logger log.Logger
	store  *parked.Store
	ns     string
	line   string

	mu   sync.Mutex
	subs map[string]*subscriber
	term bool
}

func newFanout(logger log.Logger, store *parked.Store, ns, line string) *fanout {
	return &fanout{
		logger: logger,
		store:  store,
		ns:     ns,
		line:   line,
		subs:   make(map[string]*subscriber),
	}
}

// attach registers a subscriber. Fails when the line already terminated.
func (f *fanout) attach(sub *subscriber) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.term {
		return false
	}
	f.subs[sub.id] = sub
	return true
}

func (f *fanout) detach(subID string) {
	f.mu.Lock()
	delete(f.subs, subID)
	f.mu.Unlock()
}

func (f *fanout) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fanout) snapshot() []*subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*subscriber, 0, len(f.subs))
	for _, sub := range f.subs {
		out = append(out, sub)
	}
	return out
}

// Next releases one due event: it is removed from the parked store and
// offered to every subscriber whose filter accepts it. A subscriber whose
// buffer is full misses the event rather than stalling the dispatch action.
func (f *fanout) Next(ev Event) {
	if err := f.store.Unpark(ev.DueAtMs, ev.ID); err != nil {
		f.logger.Warn("unpark failed",
			log.Str("ns", f.ns), log.Str("line", f.line), log.Str("id", ev.ID.String()), log.Err(err))
	}
	for _, sub := range f.snapshot() {
		if !sub.filter.Eval(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			f.logger.Warn("subscriber buffer full, dropping event",
				log.Str("ns", f.ns), log.Str("line", f.line), log.Str("subscriber", sub.id))
		}
	}
}

// Error tears the line down: parked items are cleared and every subscriber
// observes err after draining what it already buffered.
func (f *fanout) Error(err error) {
	if cerr := f.store.Clear(); cerr != nil {
		f.logger.Warn("clear parked store failed",
			log.Str("ns", f.ns), log.Str("line", f.line), log.Err(cerr))
	}
	for _, sub := range f.terminate() {
		sub.err = err
		close(sub.done)
	}
}

// Complete signals normal end of the line; by the time the stage calls this
// every parked event has already been released.
func (f *fanout) Complete() {
	for _, sub := range f.terminate() {
		close(sub.done)
	}
}

func (f *fanout) terminate() []*subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.term {
		return nil
	}
	f.term = true
	out := make([]*subscriber, 0, len(f.subs))
	for _, sub := range f.subs {
		out = append(out, sub)
	}
	f.subs = make(map[string]*subscriber)
	return out
}
