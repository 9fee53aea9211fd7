package storage

import (
	"context"
	"errors"
)

// ErrStorage marks any persistence read/write failure (quota, serialization,
// backend unavailable). Callers test with errors.Is; no backend retries on
// its own.
var ErrStorage = errors.New("storage failure")

// Backend is a named-slot key-value persistence layer. A history store owns
// exactly one key at a time; Set must replace the slot's contents atomically
// relative to that key, or not at all.
type Backend interface {
	// Get returns the raw slot contents. ok is false when the key has never
	// been written or was deleted, which is not an error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set overwrites the slot with value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the slot. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error

	Close() error
}
