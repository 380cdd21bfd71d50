// Package storage mirrors the merged documents into a relational table.
//
// The mirror follows the same rebuild contract as the search index: every
// run drops the table, recreates it and bulk-loads the documents. Backends
// register themselves by kind from an init function.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DefaultTable is the mirror table name when none is configured.
const DefaultTable = "menu_documents"

// Config selects and configures a backend.
type Config struct {
	Kind  string // "postgres" | "sqlite" | "mssql"
	DSN   string
	Table string
}

// Mirror is a relational sink for document rows.
type Mirror interface {
	// Reset drops table if present and creates it with cols.
	Reset(ctx context.Context, table string, cols []Column) error

	// InsertRows appends rows; each row is aligned with columns.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Close releases backend resources. Call once.
	Close()
}

type factory func(ctx context.Context, cfg Config) (Mirror, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register makes a backend available under kind. It panics on an empty
// kind, a nil factory or a duplicate registration.
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

// Kinds lists the registered backends.
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

// New opens the backend named by cfg.Kind.
func New(ctx context.Context, cfg Config) (Mirror, error) {
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
