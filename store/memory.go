package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/facade/distance"
	"github.com/hupe1980/facade/model"
)

// MemoryStore is the in-memory Store implementation. Records are kept in
// insertion order; the first insert establishes the dimension for the
// lifetime of the contents.
//
// Reads run concurrently; inserts, deletes and rebuilds take the write
// lock. RebuildIndex constructs the new index outside the lock and swaps
// it in, so queries racing a rebuild always see a complete index.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.EmbeddingRecord
	dim     int
	index   *ivfIndex
	opts    options
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(optFns ...Option) *MemoryStore {
	return &MemoryStore{opts: applyOptions(optFns)}
}

// validate checks an embedding against the established dimension. Caller
// holds at least the read lock.
func (s *MemoryStore) validate(embedding []float32) error {
	if len(embedding) == 0 {
		return ErrEmptyEmbedding
	}
	if s.dim != 0 && len(embedding) != s.dim {
		return &ErrDimensionMismatch{Expected: s.dim, Actual: len(embedding)}
	}
	if !distance.IsFinite(embedding) {
		return ErrNotFinite
	}
	return nil
}

// Insert appends one record.
func (s *MemoryStore) Insert(ctx context.Context, rec model.EmbeddingRecord) (model.RecordID, error) {
	ids, err := s.InsertBatch(ctx, []model.EmbeddingRecord{rec})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertBatch appends records atomically. Every record is validated before
// any is appended, so a single invalid record leaves the store unchanged.
func (s *MemoryStore) InsertBatch(_ context.Context, recs []model.EmbeddingRecord) ([]model.RecordID, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dim
	for i := range recs {
		emb := recs[i].Embedding
		if err := s.validate(emb); err != nil {
			return nil, err
		}
		if dim == 0 {
			dim = len(emb)
		} else if len(emb) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(emb)}
		}
	}

	ids := make([]model.RecordID, len(recs))
	for i := range recs {
		rec := recs[i]
		rec.Embedding = slices.Clone(rec.Embedding)
		if rec.ID == "" {
			rec.ID = model.RecordID(uuid.NewString())
		}
		ids[i] = rec.ID
		s.records = append(s.records, rec)
	}
	s.dim = dim

	s.opts.logger.Debug("records inserted", "count", len(recs), "total", len(s.records))
	return ids, nil
}

// QuerySimilar computes cosine similarity between the query and stored
// records, via the inverted-file index when one is active.
func (s *MemoryStore) QuerySimilar(_ context.Context, embedding []float32, limit int, threshold float32) ([]model.SimilarityResult, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if threshold < -1 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return []model.SimilarityResult{}, nil
	}
	if err := s.validate(embedding); err != nil {
		return nil, err
	}

	type scored struct {
		seq int
		sim float32
	}
	var hits []scored

	score := func(seq int) {
		sim := distance.Dot(embedding, s.records[seq].Embedding)
		if sim >= threshold {
			hits = append(hits, scored{seq: seq, sim: sim})
		}
	}

	if idx := s.index; idx != nil {
		// Probe the nearest partitions for the indexed prefix, then scan
		// the unindexed tail exactly.
		if err := idx.probe(embedding, s.opts.nProbes, score); err != nil {
			return nil, err
		}
		for seq := idx.covered; seq < len(s.records); seq++ {
			score(seq)
		}
	} else {
		for seq := range s.records {
			score(seq)
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].sim != hits[j].sim {
			return hits[i].sim > hits[j].sim
		}
		return hits[i].seq < hits[j].seq
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]model.SimilarityResult, len(hits))
	for i, h := range hits {
		rec := s.records[h.seq]
		results[i] = model.SimilarityResult{
			Label:         rec.Label,
			Description:   rec.Description,
			ReferencePath: rec.ReferencePath,
			Similarity:    h.sim,
		}
	}
	return results, nil
}

// ListAll returns every record in insertion order. Callers must not mutate
// the returned embeddings.
func (s *MemoryStore) ListAll(_ context.Context) ([]model.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.records), nil
}

// Delete removes one record and invalidates the index, which no longer
// covers a consistent prefix.
func (s *MemoryStore) Delete(_ context.Context, id model.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records = slices.Delete(s.records, i, i+1)
			s.index = nil
			if len(s.records) == 0 {
				s.dim = 0
			}
			return nil
		}
	}
	return ErrNotFound
}

// Clear empties the store. The established dimension resets with it.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.index = nil
	s.dim = 0
	return nil
}

// RebuildIndex reconstructs the inverted-file index from current contents.
// Small stores stay on the exact scan. The new index is built from a
// point-in-time copy and swapped in only on success; a failed build leaves
// the previous index serving.
func (s *MemoryStore) RebuildIndex(ctx context.Context) error {
	recs, err := s.ListAll(ctx)
	if err != nil {
		return err
	}

	if len(recs) < s.opts.indexThreshold {
		s.mu.Lock()
		s.index = nil
		s.mu.Unlock()
		s.opts.logger.Debug("index skipped, exact scan active", "count", len(recs), "threshold", s.opts.indexThreshold)
		return nil
	}

	idx, err := buildIVF(recs, s.Dimension(), s.opts)
	if err != nil {
		return err
	}
	if idx == nil {
		return nil
	}

	s.mu.Lock()
	// Records appended during the build are handled as the unindexed tail.
	s.index = idx
	s.mu.Unlock()

	s.opts.logger.Info("index rebuilt", "records", idx.covered, "partitions", idx.partitionCount())
	return nil
}

// Count returns the number of records.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records), nil
}

// Dimension returns the established embedding dimension.
func (s *MemoryStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dim
}
