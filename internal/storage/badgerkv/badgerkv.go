// Package badgerkv provides a Badger-backed storage backend for durable
// single-node deployments.
package badgerkv

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tippingchain/txhistory/internal/storage"
)

type Backend struct {
	db *badger.DB
}

// Open opens (or creates) a Badger database rooted at path.
func Open(path string) (*Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("badger backend: path is required")
	}
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("badger backend: open %q: %w", path, err)
	}
	return &Backend{db: db}, nil
}

// OpenInMemory opens a purely in-memory Badger instance, used by tests.
func OpenInMemory() (*Backend, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("badger backend: open in-memory: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: badger get %q: %v", storage.ErrStorage, key, err)
	}
	return value, true, nil
}

func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("%w: badger set %q: %v", storage.ErrStorage, key, err)
	}
	return nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: badger delete %q: %v", storage.ErrStorage, key, err)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
