package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeConformance exercises the BlobStore contract shared by all backends.
func storeConformance(t *testing.T, bs BlobStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("OpenMissing", func(t *testing.T) {
		_, err := bs.Open(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("PutOpenRoundTrip", func(t *testing.T) {
		require.NoError(t, bs.Put(ctx, "artifacts/a.gob", []byte("alpha")))

		blob, err := bs.Open(ctx, "artifacts/a.gob")
		require.NoError(t, err)
		defer blob.Close()

		assert.Equal(t, int64(5), blob.Size())
		data, err := ReadAll(ctx, blob)
		require.NoError(t, err)
		assert.Equal(t, []byte("alpha"), data)
	})

	t.Run("CreateStreamsUntilClose", func(t *testing.T) {
		w, err := bs.Create(ctx, "artifacts/b.gob")
		require.NoError(t, err)
		_, err = w.Write([]byte("be"))
		require.NoError(t, err)
		_, err = w.Write([]byte("ta"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		blob, err := bs.Open(ctx, "artifacts/b.gob")
		require.NoError(t, err)
		defer blob.Close()

		data, err := ReadAll(ctx, blob)
		require.NoError(t, err)
		assert.Equal(t, []byte("beta"), data)
	})

	t.Run("ListSortedByPrefix", func(t *testing.T) {
		require.NoError(t, bs.Put(ctx, "snapshots/s1", []byte("x")))

		names, err := bs.List(ctx, "artifacts/")
		require.NoError(t, err)
		assert.Equal(t, []string{"artifacts/a.gob", "artifacts/b.gob"}, names)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		require.NoError(t, bs.Delete(ctx, "snapshots/s1"))
		require.NoError(t, bs.Delete(ctx, "snapshots/s1"))

		_, err := bs.Open(ctx, "snapshots/s1")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	storeConformance(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	bs, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	storeConformance(t, bs)
}

func TestLocalStoreAtomicPut(t *testing.T) {
	ctx := context.Background()
	bs, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, bs.Put(ctx, "model", []byte("v1")))
	require.NoError(t, bs.Put(ctx, "model", []byte("v2")))

	blob, err := bs.Open(ctx, "model")
	require.NoError(t, err)
	defer blob.Close()

	data, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	// Staged temp files never show up in listings.
	names, err := bs.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"model"}, names)
}
