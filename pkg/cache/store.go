package cache

import (
	"context"
	"fmt"
)

// Store is the persistence contract for cache records. Implementations
// must be safe for concurrent use; when writers race on a key the last
// write wins. Record bodies arrive in cipher form when the engine has a
// cipher configured.
type Store interface {
	// Get returns the record stored under key and whether it was found.
	Get(ctx context.Context, key string) (rec *Record, ok bool, err error)

	// Set stores the record under key, replacing any previous value.
	Set(ctx context.Context, key string, rec *Record) error

	// Delete removes the record stored under key, if any.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a record is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Clean removes every record the store holds.
	Clean(ctx context.Context) error
}

// StoreError wraps a failure of the persistence backend. Store failures
// are never substituted with stale records; they always propagate so a
// broken backend cannot be silently masked.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cache store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
