// Package memory provides an in-process storage backend, used by tests and
// ephemeral deployments.
package memory

import (
	"context"
	"sync"
)

type Backend struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func New() *Backend {
	return &Backend{slots: make(map[string][]byte)}
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, ok := b.slots[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots[key] = stored
	return nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.slots, key)
	return nil
}

func (b *Backend) Close() error {
	return nil
}
