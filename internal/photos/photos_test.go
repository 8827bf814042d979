package photos_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waymark/internal/photos"
)

func stores(t *testing.T) map[string]photos.BlobStore {
	t.Helper()
	dir, err := photos.NewDir(t.TempDir())
	require.NoError(t, err)
	return map[string]photos.BlobStore{
		"memory": photos.NewMemory(),
		"dir":    dir,
	}
}

func TestBlobStore_RoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			data := []byte("jpeg bytes")

			key, err := store.Save(ctx, data)
			require.NoError(t, err)
			require.NotEmpty(t, key)

			loaded, ok, err := store.Load(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, data, loaded)
		})
	}
}

func TestBlobStore_SameContentSameKey(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first, err := store.Save(ctx, []byte("same"))
			require.NoError(t, err)
			second, err := store.Save(ctx, []byte("same"))
			require.NoError(t, err)
			assert.Equal(t, first, second)

			other, err := store.Save(ctx, []byte("different"))
			require.NoError(t, err)
			assert.NotEqual(t, first, other)
		})
	}
}

func TestBlobStore_MissingAndDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			missing := strings.Repeat("ab", 32)
			_, ok, err := store.Load(ctx, missing)
			require.NoError(t, err)
			assert.False(t, ok)

			key, err := store.Save(ctx, []byte("ephemeral"))
			require.NoError(t, err)
			require.NoError(t, store.Delete(ctx, key))

			_, ok, err = store.Load(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, store.Delete(ctx, key), "delete is idempotent")
		})
	}
}

// TestDir_RejectsNonContentKeys pins keys to the content-hash shape:
// keys come from mutable details, so a crafted key must not reach files
// outside the blob root.
func TestDir_RejectsNonContentKeys(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	root := filepath.Join(parent, "blobs")

	store, err := photos.NewDir(root)
	require.NoError(t, err)

	secret := filepath.Join(parent, "secret")
	require.NoError(t, os.WriteFile(secret, []byte("keystore bytes"), 0o600))

	for _, key := range []string{
		"../secret",
		"..",
		"",
		"no-such-key",
		strings.Repeat("AB", 32),
		strings.Repeat("ab", 32) + "00",
	} {
		_, _, err := store.Load(ctx, key)
		assert.Error(t, err, "load %q", key)
		assert.Error(t, store.Delete(ctx, key), "delete %q", key)
	}

	_, statErr := os.Stat(secret)
	assert.NoError(t, statErr, "file outside the root must survive")
}
