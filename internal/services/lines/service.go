package linesvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/osamaakb/tempo/internal/delay"
	"github.com/osamaakb/tempo/internal/namespace"
	"github.com/osamaakb/tempo/internal/parked"
	"github.com/osamaakb/tempo/internal/runtime"
	"github.com/osamaakb/tempo/pkg/id"
	"github.com/osamaakb/tempo/pkg/log"
	"github.com/osamaakb/tempo/pkg/sched"
)

var (
	ErrLineNotFound    = errors.New("line not found")
	ErrLineClosed      = errors.New("line closed")
	ErrLineFull        = errors.New("line full")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrRateLimited     = errors.New("publish rate limited")
	ErrDelayTooLong    = errors.New("delay exceeds configured maximum")
	ErrUnknownNS       = errors.New("unknown namespace")
)

// Options configures a Service.
type Options struct {
	// Scheduler supplies the clock and wakeups for every line's stage.
	// Defaults to sched.Timer().
	Scheduler sched.Scheduler
	Logger    log.Logger
}

// Service manages the delay lines of all namespaces.
type Service struct {
	rt      *runtime.Runtime
	sched   sched.Scheduler
	logger  log.Logger
	limiter *rate.Limiter

	mu    sync.Mutex
	lines map[string]*line
}

type line struct {
	ns   string
	name string
	meta LineMeta

	store *parked.Store
	fan   *fanout

	// upMu serializes upstream calls into the stage, which requires them
	// not to race each other.
	upMu    sync.Mutex
	stage   *delay.Stage[Event]
	closing bool
}

func New(rt *runtime.Runtime, opts Options) *Service {
	sc := opts.Scheduler
	if sc == nil {
		sc = sched.Timer()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger()
	}
	s := &Service{
		rt:     rt,
		sched:  sc,
		logger: logger.WithComponent("lines"),
		lines:  make(map[string]*line),
	}
	if r := rt.Config().PublishRatePerSec; r > 0 {
		burst := rt.Config().PublishBurst
		if burst <= 0 {
			burst = int(r)
			if burst < 1 {
				burst = 1
			}
		}
		s.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
	return s
}

func (s *Service) EnsureNamespace(ctx context.Context, ns string) (namespace.Meta, error) {
	if ns == "" {
		ns = s.rt.Config().DefaultNamespaceName
	}
	return s.rt.EnsureNamespace(ns)
}

// ensureNamespaceForUse is the implicit variant: when auto-creation is
// disabled, only namespaces created explicitly (or the default) qualify.
func (s *Service) ensureNamespaceForUse(ctx context.Context, ns string) (namespace.Meta, error) {
	cfg := s.rt.Config()
	if ns == "" {
		ns = cfg.DefaultNamespaceName
	}
	if !cfg.AllowAutoCreateNamespaces && ns != cfg.DefaultNamespaceName && !namespace.Exists(s.rt.DB(), ns) {
		return namespace.Meta{}, ErrUnknownNS
	}
	return s.rt.EnsureNamespace(ns)
}

// CreateLine persists a line with the given fixed delay and registers its
// stage. Creating an existing line is a no-op; the stored delay wins.
func (s *Service) CreateLine(ctx context.Context, ns, name string, delayMs int64, labels map[string]string) error {
	metaNS, err := s.ensureNamespaceForUse(ctx, ns)
	if err != nil {
		return err
	}
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid line name %q", name)
	}
	if delayMs < 0 {
		delayMs = 0
	}
	if max := s.rt.Config().MaxDelayMs; max > 0 && delayMs > max {
		return ErrDelayTooLong
	}
	if delayMs == 0 {
		delayMs = metaNS.DefaultDelayMs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[metaNS.Name+"/"+name]; ok {
		return nil
	}
	if b, err := s.rt.DB().Get(lineMetaKey(metaNS.Name, name)); err == nil && len(b) > 0 {
		return nil
	}
	meta := LineMeta{
		DelayMs:         delayMs,
		PayloadMaxBytes: metaNS.PayloadMaxBytes,
		MaxParked:       metaNS.MaxParked,
		CreatedAtMs:     time.Now().UnixMilli(),
		Labels:          labels,
	}
	if err := s.writeLineMeta(metaNS.Name, name, meta); err != nil {
		return err
	}
	s.openLocked(metaNS.Name, name, meta)
	return nil
}

func (s *Service) writeLineMeta(ns, name string, meta LineMeta) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.rt.DB().Set(lineMetaKey(ns, name), b)
}

// openLocked instantiates the in-memory side of a line. Caller holds s.mu.
// Parked items still on disk are replayed into the stage so it owes exactly
// what the store holds, and a persisted terminal state is restored: a faulted
// line fails straight away, a closed one drains its backlog then completes.
func (s *Service) openLocked(ns, name string, meta LineMeta) *line {
	store := s.rt.OpenStore(ns, name)
	fan := newFanout(s.logger, store, ns, name)
	ln := &line{
		ns:    ns,
		name:  name,
		meta:  meta,
		store: store,
		fan:   fan,
		stage: delay.New[Event](fan, delay.Options{
			Delay:     time.Duration(meta.DelayMs) * time.Millisecond,
			Scheduler: s.sched,
		}),
	}
	s.lines[ns+"/"+name] = ln

	n := 0
	err := store.Recover(func(it parked.Item) error {
		ln.stage.NextAt(Event{
			ID:            it.ID,
			Namespace:     ns,
			Line:          name,
			Payload:       it.Payload,
			Headers:       it.Headers,
			PublishedAtMs: it.PublishedAtMs,
			DueAtMs:       it.DueAtMs,
		}, time.UnixMilli(it.DueAtMs))
		n++
		return nil
	})
	if err != nil {
		s.logger.Warn("replay parked events failed",
			log.Str("ns", ns), log.Str("line", name), log.Err(err))
	}
	if n > 0 {
		s.logger.Info("recovered parked events",
			log.Str("ns", ns), log.Str("line", name), log.Int("count", n))
	}
	switch {
	case meta.FaultReason != "":
		ln.closing = true
		ln.stage.Error(errors.New(meta.FaultReason))
	case meta.ClosedAtMs > 0:
		ln.closing = true
		ln.stage.Complete()
	}
	return ln
}

// getLine returns the loaded line, lazily opening it from persisted meta.
func (s *Service) getLine(ns, name string) (*line, error) {
	if ns == "" {
		ns = s.rt.Config().DefaultNamespaceName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ln, ok := s.lines[ns+"/"+name]; ok {
		return ln, nil
	}
	b, err := s.rt.DB().Get(lineMetaKey(ns, name))
	if err != nil || len(b) == 0 {
		return nil, ErrLineNotFound
	}
	var meta LineMeta
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("decode line meta: %w", err)
	}
	return s.openLocked(ns, name, meta), nil
}

// Publish parks payload on the line and schedules its release one delay
// from now. It returns the assigned event id and the due time in ms.
func (s *Service) Publish(ctx context.Context, ns, lineName string, payload []byte, headers map[string]string) (id.ID, int64, error) {
	if s.limiter != nil && !s.limiter.Allow() {
		return id.ID{}, 0, ErrRateLimited
	}
	ln, err := s.getLine(ns, lineName)
	if err != nil {
		return id.ID{}, 0, err
	}
	ln.upMu.Lock()
	defer ln.upMu.Unlock()
	if ln.closing {
		return id.ID{}, 0, ErrLineClosed
	}
	if max := ln.meta.PayloadMaxBytes; max > 0 && len(payload) > max {
		return id.ID{}, 0, ErrPayloadTooLarge
	}
	if mp := ln.meta.MaxParked; mp > 0 && ln.stage.Pending() >= mp {
		return id.ID{}, 0, ErrLineFull
	}
	now := s.sched.Now()
	due := now.Add(ln.stage.Delay())
	itemID, err := ln.store.Park(due.UnixMilli(), now.UnixMilli(), headers, payload)
	if err != nil {
		return id.ID{}, 0, fmt.Errorf("park: %w", err)
	}
	ln.stage.NextAt(Event{
		ID:            itemID,
		Namespace:     ln.ns,
		Line:          ln.name,
		Payload:       payload,
		Headers:       headers,
		PublishedAtMs: now.UnixMilli(),
		DueAtMs:       due.UnixMilli(),
	}, due)
	return itemID, due.UnixMilli(), nil
}

// Subscribe streams released events to sink until the line terminates or
// either context ends. A terminating fault is returned as the error; normal
// completion returns nil after buffered events are flushed.
func (s *Service) Subscribe(ctx context.Context, ns, lineName string, opts SubscribeOptions, sink SubscribeSink) error {
	ln, err := s.getLine(ns, lineName)
	if err != nil {
		return err
	}
	filter, err := newCELFilter(opts.Filter)
	if err != nil {
		return fmt.Errorf("compile filter: %w", err)
	}
	sub := &subscriber{
		id:     uuid.NewString(),
		filter: filter,
		ch:     make(chan Event, subscriberBuffer),
		done:   make(chan struct{}),
	}
	if !ln.fan.attach(sub) {
		return ErrLineClosed
	}
	defer ln.fan.detach(sub.id)
	deliver := func(ev Event) error {
		if err := sink.Send(ev); err != nil {
			return err
		}
		return sink.Flush()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sink.Context().Done():
			return sink.Context().Err()
		case ev := <-sub.ch:
			if err := deliver(ev); err != nil {
				return err
			}
		case <-sub.done:
			// Drain what was buffered before the terminal signal.
			for {
				select {
				case ev := <-sub.ch:
					if err := deliver(ev); err != nil {
						return err
					}
				default:
					return sub.err
				}
			}
		}
	}
}

// CloseLine completes the line: further publishes fail and subscribers see
// completion once every parked event has been released.
func (s *Service) CloseLine(ctx context.Context, ns, lineName string) error {
	ln, err := s.getLine(ns, lineName)
	if err != nil {
		return err
	}
	ln.upMu.Lock()
	defer ln.upMu.Unlock()
	if ln.closing {
		return nil
	}
	ln.meta.ClosedAtMs = time.Now().UnixMilli()
	if err := s.writeLineMeta(ln.ns, ln.name, ln.meta); err != nil {
		ln.meta.ClosedAtMs = 0
		return fmt.Errorf("persist close: %w", err)
	}
	ln.closing = true
	ln.stage.Complete()
	return nil
}

// Fault fails the line: parked events are dropped and subscribers observe
// the reason immediately.
func (s *Service) Fault(ctx context.Context, ns, lineName, reason string) error {
	ln, err := s.getLine(ns, lineName)
	if err != nil {
		return err
	}
	ln.upMu.Lock()
	defer ln.upMu.Unlock()
	if ln.closing {
		return ErrLineClosed
	}
	ln.meta.ClosedAtMs = time.Now().UnixMilli()
	ln.meta.FaultReason = reason
	if err := s.writeLineMeta(ln.ns, ln.name, ln.meta); err != nil {
		ln.meta.ClosedAtMs = 0
		ln.meta.FaultReason = ""
		return fmt.Errorf("persist fault: %w", err)
	}
	ln.closing = true
	ln.stage.Error(errors.New(reason))
	return nil
}

// Stats reports the line's delay, parked backlog, and subscriber count.
func (s *Service) Stats(ctx context.Context, ns, lineName string) (LineStats, error) {
	ln, err := s.getLine(ns, lineName)
	if err != nil {
		return LineStats{}, err
	}
	ln.upMu.Lock()
	closing := ln.closing
	ln.upMu.Unlock()
	return LineStats{
		Namespace:   ln.ns,
		Line:        ln.name,
		DelayMs:     ln.meta.DelayMs,
		Parked:      ln.stage.Pending(),
		Subscribers: ln.fan.count(),
		Closing:     closing,
	}, nil
}

// ListLines returns the names of a namespace's persisted lines.
func (s *Service) ListLines(ctx context.Context, ns string) ([]string, error) {
	if ns == "" {
		ns = s.rt.Config().DefaultNamespaceName
	}
	prefix := namespaceLinesPrefix(ns)
	names, err := s.scanLineMetas(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, nl := range names {
		out = append(out, nl[1])
	}
	return out, nil
}

// Recover opens every persisted line so parked items are replayed into their
// stages before traffic arrives. Opening also restores terminal states.
func (s *Service) Recover(ctx context.Context) error {
	pairs, err := s.scanLineMetas(allNamespacesPrefix)
	if err != nil {
		return err
	}
	for _, nl := range pairs {
		if _, err := s.getLine(nl[0], nl[1]); err != nil {
			return fmt.Errorf("open line %s/%s: %w", nl[0], nl[1], err)
		}
	}
	return nil
}

// scanLineMetas collects (namespace, line) pairs whose meta keys live under
// prefix, skipping the interleaved parked-item keys.
func (s *Service) scanLineMetas(prefix []byte) ([][2]string, error) {
	it, err := s.rt.DB().NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixUpperBound(prefix)})
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out [][2]string
	for it.First(); it.Valid(); it.Next() {
		ns, name, ok := parseLineMetaKey(it.Key())
		if !ok {
			continue
		}
		out = append(out, [2]string{ns, name})
	}
	return out, nil
}

// Close tears down the in-memory side of every line. Parked items stay on
// disk for the next Recover; subscribers are not signalled.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ln := range s.lines {
		ln.stage.Unsubscribe()
	}
	s.lines = make(map[string]*line)
}
