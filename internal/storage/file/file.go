// Package file provides a directory-backed storage backend: one JSON file
// per key, written atomically via a temp file plus rename.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tippingchain/txhistory/internal/storage"
)

type Backend struct {
	dir string
}

// New creates the backing directory if needed.
func New(dir string) (*Backend, error) {
	if dir == "" {
		return nil, fmt.Errorf("file backend: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file backend: create dir %q: %w", dir, err)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapStorage("read slot %q: %v", key, err)
	}
	return data, true, nil
}

func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	target := b.path(key)

	// Write-then-rename keeps the previous contents intact if the write
	// fails partway.
	tmp, err := os.CreateTemp(b.dir, filepath.Base(target)+".tmp*")
	if err != nil {
		return wrapStorage("create temp for slot %q: %v", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return wrapStorage("write slot %q: %v", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return wrapStorage("close slot %q: %v", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return wrapStorage("rename slot %q: %v", key, err)
	}
	return nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	err := os.Remove(b.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return wrapStorage("delete slot %q: %v", key, err)
	}
	return nil
}

func (b *Backend) Close() error {
	return nil
}

func (b *Backend) path(key string) string {
	return filepath.Join(b.dir, sanitize(key)+".json")
}

// sanitize maps a storage key onto a safe file name.
func sanitize(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func wrapStorage(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{storage.ErrStorage}, args...)...)
}
