package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/facade/distance"
	"github.com/hupe1980/facade/model"
)

// RNG encapsulates a seeded random number generator.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// UnitVector returns a random unit-norm vector of the given dimension.
func (r *RNG) UnitVector(dim int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := make([]float32, dim)
	for {
		for i := range v {
			v[i] = float32(r.rand.NormFloat64())
		}
		if distance.NormalizeL2InPlace(v) {
			return v
		}
	}
}

// UnitVectors returns num random unit-norm vectors.
func (r *RNG) UnitVectors(num, dim int) [][]float32 {
	vecs := make([][]float32, num)
	for i := range vecs {
		vecs[i] = r.UnitVector(dim)
	}
	return vecs
}

// Perturbed returns a unit-norm vector close to base: base plus scaled
// Gaussian noise, renormalized. Smaller eps means closer.
func (r *RNG) Perturbed(base []float32, eps float32) []float32 {
	r.mu.Lock()
	noise := make([]float32, len(base))
	for i := range noise {
		noise[i] = float32(r.rand.NormFloat64())
	}
	r.mu.Unlock()

	out := make([]float32, len(base))
	for i := range out {
		out[i] = base[i] + eps*noise[i]
	}
	if !distance.NormalizeL2InPlace(out) {
		copy(out, base)
	}
	return out
}

// Records builds a labeled corpus fixture: for each label, perRecord
// records clustered around a random anchor embedding.
func (r *RNG) Records(labels []string, perLabel, dim int) []model.EmbeddingRecord {
	var recs []model.EmbeddingRecord
	for _, label := range labels {
		anchor := r.UnitVector(dim)
		for i := 0; i < perLabel; i++ {
			recs = append(recs, model.EmbeddingRecord{
				Label:         label,
				Embedding:     r.Perturbed(anchor, 0.05),
				Description:   fmt.Sprintf("%s reference", label),
				ReferencePath: fmt.Sprintf("data/%s/%d.jpg", label, i),
			})
		}
	}
	return recs
}
