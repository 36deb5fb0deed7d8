package kv

import "context"

// Store is a minimal key/value contract for the engine's persisted
// state. Values are opaque bytes; callers decide the encoding.
type Store interface {
	// Set stores the value under the key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Get returns the value stored under the key.
	// Returns ErrKeyNotFound when the key has never been written.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
