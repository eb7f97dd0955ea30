// Package storage exports processed tables to relational databases.
// Backends self-register under a kind string; callers pick one through
// Config without importing driver packages.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Config selects and connects a backend.
type Config struct {
	// Kind must match a registered backend kind.
	Kind string
	// DSN is passed through to the backend factory; validation is
	// backend-specific.
	DSN string
}

// Repository is the minimal surface the export step needs. Each backend
// implements the semantics in its own dialect (placeholders, DDL types,
// date handling).
type Repository interface {
	// EnsureTable creates the target table if it does not exist.
	EnsureTable(ctx context.Context, spec TableSpec) error

	// InsertRows bulk-inserts rows. Row values follow the column order
	// of the TableSpec passed to EnsureTable.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Close releases backend resources. Call once at shutdown.
	Close()
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres"). Call
// from an init() in the backend package.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered. Failing fast avoids ambiguous
//     backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, for diagnostics.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	return out
}
