package parked

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	pebblestore "github.com/osamaakb/tempo/internal/storage/pebble"
	"github.com/osamaakb/tempo/pkg/id"
)

// Item is one parked (buffered, not yet due) event.
type Item struct {
	ID            id.ID
	DueAtMs       int64
	PublishedAtMs int64
	Headers       map[string]string
	Payload       []byte
}

// Store persists one line's parked items.
type Store struct {
	db        *pebblestore.DB
	namespace string
	line      string
	gen       *id.Generator
}

// Open binds a Store to a namespace/line.
func Open(db *pebblestore.DB, namespace, line string) *Store {
	return &Store{db: db, namespace: namespace, line: line, gen: id.NewGenerator()}
}

// Park persists one item and returns its assigned id.
func (s *Store) Park(dueAtMs, publishedAtMs int64, headers map[string]string, payload []byte) (id.ID, error) {
	itemID := s.gen.Next()
	key := KeyItem(s.namespace, s.line, dueAtMs, itemID)
	val := encodeRecord(encodeHeader(publishedAtMs, headers), payload)
	if err := s.db.Set(key, val); err != nil {
		return id.ID{}, fmt.Errorf("park item: %w", err)
	}
	return itemID, nil
}

// Unpark removes a delivered item. Missing keys are ignored.
func (s *Store) Unpark(dueAtMs int64, itemID id.ID) error {
	return s.db.Delete(KeyItem(s.namespace, s.line, dueAtMs, itemID))
}

// Clear drops every parked item for the line.
func (s *Store) Clear() error {
	return s.db.DeleteRange(KeyPrefix(s.namespace, s.line), keyUpperBound(s.namespace, s.line))
}

// Count returns the number of parked items.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.scan(func(Item) error { n++; return nil })
	return n, err
}

// Recover replays surviving items in due-time order. The callback decides
// what to do with each; a non-nil return stops the scan.
func (s *Store) Recover(fn func(Item) error) error {
	return s.scan(fn)
}

// errStopScan aborts a scan without reporting failure.
var errStopScan = fmt.Errorf("stop scan")

// PendingAt returns up to limit items due at or before nowMs, oldest first.
// A limit <= 0 means no limit.
func (s *Store) PendingAt(nowMs int64, limit int) ([]Item, error) {
	var out []Item
	err := s.scan(func(it Item) error {
		if it.DueAtMs > nowMs {
			return errStopScan
		}
		out = append(out, it)
		if limit > 0 && len(out) >= limit {
			return errStopScan
		}
		return nil
	})
	if err != nil && err != errStopScan {
		return nil, err
	}
	return out, nil
}

func (s *Store) scan(fn func(Item) error) error {
	prefix := KeyPrefix(s.namespace, s.line)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(s.namespace, s.line),
	})
	if err != nil {
		return fmt.Errorf("parked scan: %w", err)
	}
	defer iter.Close()

	for ok := iter.First(); ok; ok = iter.Next() {
		dueAtMs, itemID, ok := parseItemKey(prefix, iter.Key())
		if !ok {
			continue
		}
		header, payload, ok := decodeRecord(iter.Value())
		if !ok {
			// corrupt record: skip rather than poison recovery
			continue
		}
		publishedAtMs, headers := decodeHeader(header)
		item := Item{
			ID:            itemID,
			DueAtMs:       dueAtMs,
			PublishedAtMs: publishedAtMs,
			Headers:       headers,
			Payload:       payload,
		}
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}
