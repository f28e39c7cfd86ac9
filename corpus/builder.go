package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/facade/distance"
	"github.com/hupe1980/facade/embedder"
	"github.com/hupe1980/facade/model"
	"github.com/hupe1980/facade/store"
)

// Mode selects how a label's photos become embedding records.
type Mode int

const (
	// ModePerImage stores one record per photo. Recognition then sees
	// multiple viewpoints per building.
	ModePerImage Mode = iota

	// ModeCentroid stores a single record per label: the renormalized
	// mean of the label's photo embeddings.
	ModeCentroid
)

// ErrNoImages is returned when a corpus scan finds nothing to build from.
var ErrNoImages = errors.New("corpus contains no images")

const (
	// DefaultBatchSize is the number of photos embedded per encoder call.
	DefaultBatchSize = 8

	// DefaultWorkers bounds concurrent label processing.
	DefaultWorkers = 4
)

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// Mode selects per-image or centroid records. Defaults to ModePerImage.
	Mode Mode

	// BatchSize is the number of photos per embedding call.
	BatchSize int

	// Workers bounds how many labels are processed concurrently.
	Workers int

	// Describe supplies the stored description for a label. Optional.
	Describe func(label string) string

	// Logger for build progress. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Builder populates a vector store from a photo corpus.
type Builder struct {
	embedder embedder.Embedder
	store    store.Store
	opts     BuilderOptions
}

// NewBuilder creates a Builder over the given embedder and store.
func NewBuilder(e embedder.Embedder, s store.Store, optFns ...func(o *BuilderOptions)) *Builder {
	opts := BuilderOptions{
		Mode:      ModePerImage,
		BatchSize: DefaultBatchSize,
		Workers:   DefaultWorkers,
		Logger:    slog.New(slog.DiscardHandler),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Builder{embedder: e, store: s, opts: opts}
}

// BuildStats summarizes a build run.
type BuildStats struct {
	Labels  int `json:"labels"`
	Images  int `json:"images"`
	Records int `json:"records"`
}

// BuildIndex scans the corpus, embeds every photo and inserts the
// resulting records, then rebuilds the store's similarity index. Labels
// are processed concurrently; each label's records are inserted as one
// atomic batch.
func (b *Builder) BuildIndex(ctx context.Context, root string) (BuildStats, error) {
	files, err := Scan(root)
	if err != nil {
		return BuildStats{}, err
	}
	if len(files) == 0 {
		return BuildStats{}, fmt.Errorf("%w: %q", ErrNoImages, root)
	}

	labels, groups := groupByLabel(files)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	recordCounts := make([]int, len(labels))
	for i, label := range labels {
		g.Go(func() error {
			n, err := b.buildLabel(ctx, label, groups[label])
			if err != nil {
				return fmt.Errorf("label %q: %w", label, err)
			}
			recordCounts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BuildStats{}, err
	}

	if err := b.store.RebuildIndex(ctx); err != nil {
		return BuildStats{}, fmt.Errorf("rebuild index: %w", err)
	}

	stats := BuildStats{Labels: len(labels), Images: len(files)}
	for _, n := range recordCounts {
		stats.Records += n
	}

	b.opts.Logger.Info("corpus indexed",
		"labels", stats.Labels, "images", stats.Images, "records", stats.Records)
	return stats, nil
}

// buildLabel embeds one label's photos and inserts its records.
func (b *Builder) buildLabel(ctx context.Context, label string, files []ImageFile) (int, error) {
	vectors, err := b.embedFiles(ctx, files)
	if err != nil {
		return 0, err
	}

	var description string
	if b.opts.Describe != nil {
		description = b.opts.Describe(label)
	}

	var recs []model.EmbeddingRecord
	switch b.opts.Mode {
	case ModeCentroid:
		recs = []model.EmbeddingRecord{{
			Label:       label,
			Embedding:   centroid(vectors),
			Description: description,
		}}
	default:
		recs = make([]model.EmbeddingRecord, len(vectors))
		for i, vec := range vectors {
			recs[i] = model.EmbeddingRecord{
				Label:         label,
				Embedding:     vec,
				Description:   description,
				ReferencePath: files[i].Path,
			}
		}
	}

	if _, err := b.store.InsertBatch(ctx, recs); err != nil {
		return 0, err
	}

	b.opts.Logger.Debug("label indexed", "label", label, "images", len(files), "records", len(recs))
	return len(recs), nil
}

// embedFiles reads and embeds photos in batches, preserving order.
func (b *Builder) embedFiles(ctx context.Context, files []ImageFile) ([][]float32, error) {
	vectors := make([][]float32, 0, len(files))
	for start := 0; start < len(files); start += b.opts.BatchSize {
		end := min(start+b.opts.BatchSize, len(files))

		images := make([][]byte, 0, end-start)
		for _, f := range files[start:end] {
			data, err := os.ReadFile(f.Path)
			if err != nil {
				return nil, fmt.Errorf("read %q: %w", f.Path, err)
			}
			images = append(images, data)
		}

		vecs, err := b.embedder.EmbedBatch(ctx, images)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vecs...)
	}
	return vectors, nil
}

// centroid returns the renormalized mean of unit vectors.
func centroid(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	mean := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		for i, x := range v {
			mean[i] += x
		}
	}
	n := float32(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	distance.NormalizeL2InPlace(mean)
	return mean
}
