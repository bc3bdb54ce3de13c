package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fluxstate/apperrors"
)

// FileBinder persists each key as one file under Dir, named by a sanitized
// version of the key. It is the single-node durable counterpart to
// MemoryBinder, for CLIs and local daemons that want rehydrate-on-restart
// without a network dependency.
type FileBinder struct {
	mu  sync.Mutex
	dir string
}

// NewFileBinder constructs a FileBinder rooted at dir, creating it if
// necessary.
func NewFileBinder(dir string) (*FileBinder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.PersistenceIO("create storage directory", err)
	}
	return &FileBinder{dir: dir}, nil
}

// Get reads the file backing key, returning (nil, nil) if it does not
// exist.
func (b *FileBinder) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.PersistenceIO("read snapshot file", err)
	}
	return data, nil
}

// Set writes value to the file backing key, replacing any prior contents.
func (b *FileBinder) Set(ctx context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.WriteFile(b.path(key), value, 0o644); err != nil {
		return apperrors.PersistenceIO("write snapshot file", err)
	}
	return nil
}

// Remove deletes the file backing key, if present.
func (b *FileBinder) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return apperrors.PersistenceIO("remove snapshot file", err)
	}
	return nil
}

func (b *FileBinder) path(key string) string {
	return filepath.Join(b.dir, fmt.Sprintf("%s.snapshot", sanitize(key)))
}

func sanitize(key string) string {
	out := make([]rune, 0, len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
