// Package store implements the reference-embedding corpus: a durable
// collection of labeled embedding records with cosine-similarity search and
// a rebuildable inverted-file acceleration index.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/facade/model"
)

var (
	// ErrInvalidLimit is returned when a query limit is not positive.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrInvalidThreshold is returned when a similarity threshold is outside [-1, 1].
	ErrInvalidThreshold = errors.New("threshold must be in [-1, 1]")

	// ErrNotFinite is returned when an embedding contains NaN or Inf components.
	ErrNotFinite = errors.New("embedding contains non-finite values")

	// ErrEmptyEmbedding is returned when an embedding has zero length.
	ErrEmptyEmbedding = errors.New("embedding is empty")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable wraps failures of the backing storage. Callers must
	// treat it as distinct from an empty result: "could not search" is not
	// "no match".
	ErrUnavailable = errors.New("store unavailable")
)

// ErrDimensionMismatch indicates an embedding whose dimension differs from
// the store's established dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Store is the vector-store contract. Any engine that can hold labeled
// vectors, query them by cosine similarity with a threshold, and rebuild a
// derived index satisfies it.
type Store interface {
	// Insert appends one record and returns its ID. The first insert
	// establishes the store's dimension.
	Insert(ctx context.Context, rec model.EmbeddingRecord) (model.RecordID, error)

	// InsertBatch appends records atomically: if any record is invalid the
	// whole batch is rejected and the store is unchanged.
	InsertBatch(ctx context.Context, recs []model.EmbeddingRecord) ([]model.RecordID, error)

	// QuerySimilar returns at most limit results with similarity >= threshold,
	// ordered by similarity descending, ties broken by insertion order.
	// An empty result is success, not an error.
	QuerySimilar(ctx context.Context, embedding []float32, limit int, threshold float32) ([]model.SimilarityResult, error)

	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]model.EmbeddingRecord, error)

	// Delete removes one record. Records are never mutated in place;
	// correction is delete-and-reinsert.
	Delete(ctx context.Context, id model.RecordID) error

	// Clear empties the store and discards any index.
	Clear(ctx context.Context) error

	// RebuildIndex reconstructs the acceleration index from current
	// contents. The index is a derived cache: rebuild failure leaves the
	// previous index intact.
	RebuildIndex(ctx context.Context) error

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Dimension returns the established embedding dimension, or 0 when the
	// store is empty and no dimension is established yet.
	Dimension() int
}
