// Package namespace persists namespace metadata and per-namespace line
// defaults.
package namespace

import (
	"encoding/json"
	"time"

	pebblestore "github.com/osamaakb/tempo/internal/storage/pebble"
)

// Meta holds namespace metadata and baseline limits for its delay lines.
type Meta struct {
	Name            string `json:"name"`
	CreatedAtMs     int64  `json:"createdAtMs"`
	DefaultDelayMs  int64  `json:"defaultDelayMs"`
	PayloadMaxBytes int    `json:"payloadMaxBytes"`
	MaxParked       int    `json:"maxParked"`
}

// Defaults returns opinionated defaults for new namespaces.
func Defaults() Meta {
	return Meta{
		DefaultDelayMs:  0,
		PayloadMaxBytes: 1 << 20, // 1 MiB
		MaxParked:       0,       // unbounded
	}
}

var nsMetaPrefix = []byte("nsmeta/")

func nsMetaKey(ns string) []byte {
	k := make([]byte, 0, len(nsMetaPrefix)+len(ns))
	k = append(k, nsMetaPrefix...)
	k = append(k, ns...)
	return k
}

// Exists reports whether a namespace meta record is present.
func Exists(db *pebblestore.DB, name string) bool {
	b, err := db.Get(nsMetaKey(name))
	return err == nil && len(b) > 0
}

// EnsureNamespace creates a namespace meta record if absent, returning the
// effective meta. Idempotent: returns existing if already present.
func EnsureNamespace(db *pebblestore.DB, name string) (Meta, error) {
	return EnsureNamespaceWithDefaults(db, name, Defaults())
}

// EnsureNamespaceWithDefaults is EnsureNamespace with caller-supplied
// baseline limits for a newly created namespace.
func EnsureNamespaceWithDefaults(db *pebblestore.DB, name string, base Meta) (Meta, error) {
	key := nsMetaKey(name)
	if b, err := db.Get(key); err == nil && len(b) > 0 {
		var m Meta
		if err := json.Unmarshal(b, &m); err == nil {
			return m, nil
		}
		// fallthrough to rewrite if corrupted
	}
	m := base
	m.Name = name
	m.CreatedAtMs = time.Now().UnixMilli()
	b, err := json.Marshal(m)
	if err != nil {
		return Meta{}, err
	}
	if err := db.Set(key, b); err != nil {
		return Meta{}, err
	}
	return m, nil
}
