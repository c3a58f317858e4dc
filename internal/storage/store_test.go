package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MattSzymonski/Own-Password/internal/storage"
	"github.com/stretchr/testify/require"
)

func newDirStore(t *testing.T) storage.BlobStore {
	t.Helper()

	store, err := storage.NewDirStore(t.TempDir())
	require.NoError(t, err)

	return store
}

func newBoltStore(t *testing.T) storage.BlobStore {
	t.Helper()

	store, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "vaults.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

// Both backends must satisfy the same collaborator contract: opaque bytes
// in, identical bytes out, no inspection in between.
func TestBlobStores(t *testing.T) {
	t.Parallel()

	backends := []struct {
		name string
		new  func(t *testing.T) storage.BlobStore
	}{
		{"dir", newDirStore},
		{"bolt", newBoltStore},
	}

	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()

			t.Run("write then read returns identical bytes", func(t *testing.T) {
				store := backend.new(t)

				data := []byte{0x00, 0xFF, 0x10, 0x20, 'O', 'P', 'W', 'V'}
				require.NoError(t, store.WriteBlob(ctx, "main", data))

				got, err := store.ReadBlob(ctx, "main")
				require.NoError(t, err)
				require.Equal(t, data, got)
			})

			t.Run("overwrite replaces content", func(t *testing.T) {
				store := backend.new(t)

				require.NoError(t, store.WriteBlob(ctx, "main", []byte("old")))
				require.NoError(t, store.WriteBlob(ctx, "main", []byte("new")))

				got, err := store.ReadBlob(ctx, "main")
				require.NoError(t, err)
				require.Equal(t, []byte("new"), got)
			})

			t.Run("read of missing blob", func(t *testing.T) {
				store := backend.new(t)

				_, err := store.ReadBlob(ctx, "missing")
				require.ErrorIs(t, err, storage.ErrNotFound)
			})

			t.Run("list returns stored names", func(t *testing.T) {
				store := backend.new(t)

				require.NoError(t, store.WriteBlob(ctx, "alpha", []byte("a")))
				require.NoError(t, store.WriteBlob(ctx, "beta", []byte("b")))

				names, err := store.ListBlobs(ctx)
				require.NoError(t, err)
				require.ElementsMatch(t, []string{"alpha", "beta"}, names)
			})

			t.Run("delete removes the blob", func(t *testing.T) {
				store := backend.new(t)

				require.NoError(t, store.WriteBlob(ctx, "gone", []byte("x")))
				require.NoError(t, store.DeleteBlob(ctx, "gone"))

				_, err := store.ReadBlob(ctx, "gone")
				require.ErrorIs(t, err, storage.ErrNotFound)
			})

			t.Run("delete of missing blob", func(t *testing.T) {
				store := backend.new(t)

				err := store.DeleteBlob(ctx, "missing")
				require.ErrorIs(t, err, storage.ErrNotFound)
			})

			t.Run("rejects names with path separators", func(t *testing.T) {
				store := backend.new(t)

				for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
					require.ErrorIs(t, store.WriteBlob(ctx, name, []byte("x")), storage.ErrInvalidName, name)
				}
			})
		})
	}
}
