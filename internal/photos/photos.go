// Package photos stores visit photo blobs. Keys are content addressed,
// so the same bytes saved twice share one blob and saving is idempotent.
package photos

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// BlobStore persists opaque photo bytes under returned keys. Delete on a
// missing key is a no-op; detach flows must not fail on an already
// removed blob.
type BlobStore interface {
	Save(ctx context.Context, data []byte) (string, error)
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
}

func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// validKey reports whether key has the shape contentKey produces. Keys
// arrive from mutable visit details, so anything else must never reach
// the filesystem.
func validKey(key string) bool {
	if len(key) != sha256.Size*2 {
		return false
	}
	for _, r := range key {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// Memory keeps blobs in a map.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Save(_ context.Context, data []byte) (string, error) {
	key := contentKey(data)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	return key, nil
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

// Dir stores each blob as a file named by its key under a root
// directory. Writes go through a temp file and rename so readers never
// observe a partial blob.
type Dir struct {
	root string
}

func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) path(key string) string {
	return filepath.Join(d.root, key)
}

func (d *Dir) Save(_ context.Context, data []byte) (string, error) {
	key := contentKey(data)
	target := d.path(key)
	if _, err := os.Stat(target); err == nil {
		return key, nil
	}

	tmp, err := os.CreateTemp(d.root, "photo-*")
	if err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save photo: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save photo: %w", err)
	}
	return key, nil
}

func (d *Dir) Load(_ context.Context, key string) ([]byte, bool, error) {
	if !validKey(key) {
		return nil, false, fmt.Errorf("load photo: invalid key %q", key)
	}
	data, err := os.ReadFile(d.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load photo: %w", err)
	}
	return data, true, nil
}

func (d *Dir) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return fmt.Errorf("delete photo: invalid key %q", key)
	}
	err := os.Remove(d.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}
