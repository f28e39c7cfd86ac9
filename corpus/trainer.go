package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/facade/classifier"
	"github.com/hupe1980/facade/embedder"
)

const (
	// DefaultAugmentVariants is the number of synthetic copies per photo
	// when augmentation is enabled.
	DefaultAugmentVariants = 5

	// DefaultFolds for cross-validation of the trained classifier.
	DefaultFolds = 5
)

// TrainerOptions configures a Trainer.
type TrainerOptions struct {
	// AugmentVariants is the number of synthetic copies per photo.
	// Zero disables augmentation.
	AugmentVariants int

	// Folds for cross-validation. Zero disables cross-validation.
	Folds int

	// Workers bounds concurrent label processing.
	Workers int

	// BatchSize is the number of images per embedding call.
	BatchSize int

	// Seed drives the augmentation randomness.
	Seed int64

	// Fit is forwarded to the classifier fit and cross-validation.
	Fit []func(o *classifier.FitOptions)

	// Logger for training progress. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Trainer fits a classifier from a photo corpus. Small corpora are the
// norm here, so each photo can optionally be expanded with synthetic
// variants before embedding.
type Trainer struct {
	embedder embedder.Embedder
	opts     TrainerOptions
}

// NewTrainer creates a Trainer over the given embedder.
func NewTrainer(e embedder.Embedder, optFns ...func(o *TrainerOptions)) *Trainer {
	opts := TrainerOptions{
		Folds:     DefaultFolds,
		Workers:   DefaultWorkers,
		BatchSize: DefaultBatchSize,
		Seed:      1,
		Logger:    slog.New(slog.DiscardHandler),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Trainer{embedder: e, opts: opts}
}

// WithAugmentation enables augmentation with the default variant count.
func WithAugmentation() func(o *TrainerOptions) {
	return func(o *TrainerOptions) {
		o.AugmentVariants = DefaultAugmentVariants
	}
}

// Train scans the corpus, embeds every photo (plus augmented variants when
// enabled) and fits a classifier. The returned report carries in-sample
// and cross-validated accuracy.
func (t *Trainer) Train(ctx context.Context, root string) (*classifier.TrainedClassifier, classifier.Report, error) {
	files, err := Scan(root)
	if err != nil {
		return nil, classifier.Report{}, err
	}
	if len(files) == 0 {
		return nil, classifier.Report{}, fmt.Errorf("%w: %q", ErrNoImages, root)
	}

	labels, groups := groupByLabel(files)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.Workers)

	var mu sync.Mutex
	var examples []classifier.Example

	for i, label := range labels {
		// Per-label RNG keeps augmentation deterministic regardless of
		// scheduling.
		rng := rand.New(rand.NewSource(t.opts.Seed + int64(i)))
		g.Go(func() error {
			exs, err := t.labelExamples(gctx, label, groups[label], rng)
			if err != nil {
				return fmt.Errorf("label %q: %w", label, err)
			}
			mu.Lock()
			examples = append(examples, exs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, classifier.Report{}, err
	}

	c, err := classifier.Fit(ctx, examples, t.opts.Fit...)
	if err != nil {
		return nil, classifier.Report{}, fmt.Errorf("fit classifier: %w", err)
	}

	report := classifier.Report{
		Examples: len(examples),
		Classes:  len(c.Labels),
	}
	if report.TrainAccuracy, err = classifier.Accuracy(c, examples); err != nil {
		return nil, classifier.Report{}, err
	}

	if t.opts.Folds >= 2 {
		report.Folds = t.opts.Folds
		report.CVAccuracy, err = classifier.CrossValidate(ctx, examples, t.opts.Folds, t.opts.Fit...)
		if err != nil {
			return nil, classifier.Report{}, fmt.Errorf("cross-validate: %w", err)
		}
	}

	t.opts.Logger.Info("classifier trained",
		"classes", report.Classes, "examples", report.Examples,
		"trainAccuracy", report.TrainAccuracy, "cvAccuracy", report.CVAccuracy)
	return c, report, nil
}

// labelExamples embeds one label's photos and their augmented variants.
func (t *Trainer) labelExamples(ctx context.Context, label string, files []ImageFile, rng *rand.Rand) ([]classifier.Example, error) {
	var images [][]byte
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", f.Path, err)
		}
		images = append(images, data)

		if t.opts.AugmentVariants > 0 {
			img, err := decodeImage(data)
			if err != nil {
				return nil, fmt.Errorf("decode %q: %w", f.Path, err)
			}
			for _, variant := range augmentVariants(img, t.opts.AugmentVariants, rng) {
				encoded, err := encodeJPEG(variant)
				if err != nil {
					return nil, err
				}
				images = append(images, encoded)
			}
		}
	}

	var examples []classifier.Example
	for start := 0; start < len(images); start += t.opts.BatchSize {
		end := min(start+t.opts.BatchSize, len(images))
		vecs, err := t.embedder.EmbedBatch(ctx, images[start:end])
		if err != nil {
			return nil, err
		}
		for _, vec := range vecs {
			examples = append(examples, classifier.Example{Label: label, Embedding: vec})
		}
	}
	return examples, nil
}
