package store

import (
	"math/rand"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/facade/distance"
	"github.com/hupe1980/facade/internal/kmeans"
	"github.com/hupe1980/facade/model"
)

// ivfIndex is an inverted-file index over a prefix of the record sequence.
// Vectors are partitioned by a k-means clustering pass; queries probe only
// the partitions nearest the query vector. It is a derived, rebuildable
// cache - never the source of truth - and covers records [0, covered);
// anything appended later is scanned exactly by the caller.
type ivfIndex struct {
	centroids  []float32 // flattened, partitionCount * dim
	dim        int
	covered    int
	partitions []*roaring.Bitmap // record seq per partition
}

// partitionCountFor scales the partition count with corpus size:
// clamp(n/10, 10, 100), never exceeding n. Over-partitioning small corpora
// produces near-empty lists and hurts recall.
func partitionCountFor(n int) int {
	c := n / 10
	if c < 10 {
		c = 10
	}
	if c > 100 {
		c = 100
	}
	if c > n {
		c = n
	}
	return c
}

func buildIVF(recs []model.EmbeddingRecord, dim int, opts options) (*ivfIndex, error) {
	n := len(recs)
	c := partitionCountFor(n)

	vectors := make([]float32, 0, n*dim)
	for i := range recs {
		vectors = append(vectors, recs[i].Embedding...)
	}

	rng := rand.New(rand.NewSource(opts.seed))
	centroids, err := kmeans.Train(vectors, dim, c, distance.MetricCosine, opts.kmeansMaxIter, rng)
	if err != nil {
		return nil, err
	}
	if centroids == nil {
		// Not enough vectors to cluster; caller keeps the exact scan.
		return nil, nil
	}

	partitions := make([]*roaring.Bitmap, c)
	for i := range partitions {
		partitions[i] = roaring.New()
	}
	for seq := range recs {
		p, err := kmeans.Assign(recs[seq].Embedding, centroids, dim, distance.MetricCosine)
		if err != nil {
			return nil, err
		}
		partitions[p].Add(uint32(seq))
	}

	return &ivfIndex{
		centroids:  centroids,
		dim:        dim,
		covered:    n,
		partitions: partitions,
	}, nil
}

func (idx *ivfIndex) partitionCount() int {
	return len(idx.partitions)
}

// probe visits every record in the nProbes partitions nearest to query.
func (idx *ivfIndex) probe(query []float32, nProbes int, visit func(seq int)) error {
	if nProbes < 1 {
		nProbes = 1
	}

	nearest, err := kmeans.Closest(query, idx.centroids, idx.dim, nProbes, distance.MetricCosine)
	if err != nil {
		return err
	}

	for _, p := range nearest {
		it := idx.partitions[p].Iterator()
		for it.HasNext() {
			visit(int(it.Next()))
		}
	}
	return nil
}
