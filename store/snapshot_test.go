package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facade/blobstore"
	"github.com/hupe1980/facade/codec"
	"github.com/hupe1980/facade/testutil"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(3)
	recs := rng.Records([]string{"Gates Hall", "Hunt Library"}, 5, 16)

	for _, comp := range []codec.Compression{codec.NoCompression{}, codec.Zstd{}, codec.LZ4{}} {
		t.Run(comp.Name(), func(t *testing.T) {
			src := NewMemoryStore()
			_, err := src.InsertBatch(ctx, recs)
			require.NoError(t, err)

			bs := blobstore.NewMemoryStore()
			require.NoError(t, SaveSnapshot(ctx, src, bs, "snapshots/corpus", SnapshotOptions{
				Compression: comp,
			}))

			dst := NewMemoryStore()
			n, err := LoadSnapshot(ctx, dst, bs, "snapshots/corpus")
			require.NoError(t, err)
			assert.Equal(t, len(recs), n)

			got, err := dst.ListAll(ctx)
			require.NoError(t, err)
			want, err := src.ListAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, src.Dimension(), dst.Dimension())

			// Loaded store answers queries identically.
			q := recs[0].Embedding
			a, err := src.QuerySimilar(ctx, q, 3, 0.5)
			require.NoError(t, err)
			b, err := dst.QuerySimilar(ctx, q, 3, 0.5)
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	_, err := LoadSnapshot(ctx, NewMemoryStore(), bs, "snapshots/nope")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestLoadSnapshotRejectsMalformed(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	t.Run("BadMagic", func(t *testing.T) {
		require.NoError(t, bs.Put(ctx, "snap", []byte(`{"magic":"other","version":1,"codec":"json","compression":"none"}`+"\n")))
		_, err := LoadSnapshot(ctx, NewMemoryStore(), bs, "snap")
		require.ErrorContains(t, err, "bad magic")
	})

	t.Run("UnknownCodec", func(t *testing.T) {
		require.NoError(t, bs.Put(ctx, "snap", []byte(`{"magic":"facade-snapshot","version":1,"codec":"msgpack","compression":"none"}`+"\n")))
		_, err := LoadSnapshot(ctx, NewMemoryStore(), bs, "snap")
		require.ErrorContains(t, err, "unknown codec")
	})

	t.Run("NoHeader", func(t *testing.T) {
		require.NoError(t, bs.Put(ctx, "snap", []byte("garbage")))
		_, err := LoadSnapshot(ctx, NewMemoryStore(), bs, "snap")
		require.Error(t, err)
	})
}
