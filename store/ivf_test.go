package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facade/model"
	"github.com/hupe1980/facade/testutil"
)

func TestPartitionCountFor(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{n: 5, want: 5},      // never exceeds record count
		{n: 50, want: 10},    // floor
		{n: 300, want: 30},   // n/10
		{n: 5000, want: 100}, // ceiling
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, partitionCountFor(tt.n), "n=%d", tt.n)
	}
}

func indexedCorpus(t *testing.T, perLabel int) (*MemoryStore, []model.EmbeddingRecord) {
	t.Helper()
	ctx := context.Background()

	rng := testutil.NewRNG(23)
	labels := []string{
		"Gates Hall", "Hunt Library", "Doherty Hall", "Wean Hall",
		"Baker Hall", "Porter Hall", "Hamerschlag Hall", "Purnell Center",
	}
	recs := rng.Records(labels, perLabel, 32)

	s := NewMemoryStore(WithIndexThreshold(100), WithSeed(23))
	_, err := s.InsertBatch(ctx, recs)
	require.NoError(t, err)
	require.NoError(t, s.RebuildIndex(ctx))
	require.NotNil(t, s.index)

	return s, recs
}

func TestIVFQueryFindsOwnRecord(t *testing.T) {
	ctx := context.Background()
	s, recs := indexedCorpus(t, 40)

	// A record queried with its own vector comes back first at sim ~1.
	for _, i := range []int{0, 17, 63, len(recs) - 1} {
		results, err := s.QuerySimilar(ctx, recs[i].Embedding, 5, 0.5)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, recs[i].Label, results[0].Label)
		assert.InDelta(t, 1.0, float64(results[0].Similarity), 1e-5)
	}
}

func TestIVFRebuildIdempotent(t *testing.T) {
	ctx := context.Background()
	s, recs := indexedCorpus(t, 40)

	query := recs[3].Embedding
	before, err := s.QuerySimilar(ctx, query, 5, 0.5)
	require.NoError(t, err)

	require.NoError(t, s.RebuildIndex(ctx))
	after, err := s.QuerySimilar(ctx, query, 5, 0.5)
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestIVFUnindexedTailIsSearched(t *testing.T) {
	ctx := context.Background()
	s, _ := indexedCorpus(t, 40)

	// Insert after the rebuild; the record is not covered by the index but
	// must still be found.
	rng := testutil.NewRNG(99)
	late := rng.UnitVector(32)
	_, err := s.Insert(ctx, model.EmbeddingRecord{Label: "Tepper Quad", Embedding: late})
	require.NoError(t, err)

	results, err := s.QuerySimilar(ctx, late, 3, 0.9)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Tepper Quad", results[0].Label)
}

func TestRebuildBelowThresholdKeepsExactScan(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(5)

	s := NewMemoryStore(WithIndexThreshold(1000))
	_, err := s.InsertBatch(ctx, rng.Records([]string{"Gates Hall"}, 20, 16))
	require.NoError(t, err)

	require.NoError(t, s.RebuildIndex(ctx))
	assert.Nil(t, s.index)

	results, err := s.QuerySimilar(ctx, rng.UnitVector(16), 5, -1)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestClearDiscardsIndex(t *testing.T) {
	ctx := context.Background()
	s, _ := indexedCorpus(t, 40)

	require.NoError(t, s.Clear(ctx))
	assert.Nil(t, s.index)

	results, err := s.QuerySimilar(ctx, testutil.NewRNG(1).UnitVector(32), 5, -1)
	require.NoError(t, err)
	assert.Empty(t, results)
}
