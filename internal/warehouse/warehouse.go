// Package warehouse loads merged canonical tables into a relational sink.
//
// Backends self-register with the factory so the engine and the CLI never
// import a driver directly; the client config picks the backend by kind.
// The load model is a flat replace: the merged table is the whole truth for
// a run, so the sink deletes and re-inserts rather than upserting.
package warehouse

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"adetl/internal/table"
)

// Config selects and addresses a backend.
type Config struct {
	Kind string
	DSN  string
}

// Repository is a merged-table sink.
type Repository interface {
	// EnsureTable creates the target table from the canonical schema if it
	// does not exist. Idempotent.
	EnsureTable(ctx context.Context, name string, schema table.Schema) error

	// Replace deletes the target table's rows and bulk-inserts the merged
	// table in order.
	Replace(ctx context.Context, name string, t *table.Table) error

	Close() error
}

// Factory builds a Repository for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds a backend factory. Backends call this from init();
// registering the same kind twice panics.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[kind]; dup {
		panic(fmt.Sprintf("warehouse: backend %q registered twice", kind))
	}
	factories[kind] = f
}

// Open builds the Repository for cfg.Kind.
func Open(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("warehouse: unknown backend %q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
