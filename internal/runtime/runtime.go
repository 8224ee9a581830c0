package runtime

import (
	"context"
	"errors"
	"time"

	cfgpkg "github.com/osamaakb/tempo/internal/config"
	"github.com/osamaakb/tempo/internal/namespace"
	"github.com/osamaakb/tempo/internal/parked"
	pebblestore "github.com/osamaakb/tempo/internal/storage/pebble"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Runtime wires storage and config for a single-node instance.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
	})
	if err != nil {
		return nil, err
	}
	return &Runtime{db: db, config: opts.Config}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// EnsureNamespace creates a namespace record if absent, seeding the
// configured per-namespace defaults.
func (r *Runtime) EnsureNamespace(name string) (namespace.Meta, error) {
	base := namespace.Defaults()
	nd := r.config.NamespaceDefaults
	if nd.DefaultDelayMs > 0 {
		base.DefaultDelayMs = nd.DefaultDelayMs
	}
	if nd.PayloadMaxBytes > 0 {
		base.PayloadMaxBytes = nd.PayloadMaxBytes
	}
	if nd.MaxParked > 0 {
		base.MaxParked = nd.MaxParked
	}
	return namespace.EnsureNamespaceWithDefaults(r.db, name, base)
}

// OpenStore opens the parked-item store for a namespace/line pair.
func (r *Runtime) OpenStore(ns, line string) *parked.Store {
	return parked.Open(r.db, ns, line)
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
