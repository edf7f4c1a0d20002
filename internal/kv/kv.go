// Package kv defines the durable key-value binding used to persist the
// collection document. The interface keeps the application independent of the
// concrete backend (Postgres, Google Cloud Storage, or process memory).
package kv

import (
	"context"
	"errors"
)

// ErrNotFound indicates the key has never been written. Callers must treat it
// differently from transient read failures: "never written" may be seeded,
// a failed read must never be.
var ErrNotFound = errors.New("key not found")

// Provider is the minimal contract for a document store keyed by name.
type Provider interface {
	// Get returns the stored bytes for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
}
