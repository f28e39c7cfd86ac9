package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/facade/blobstore"
	"github.com/hupe1980/facade/codec"
)

// artifactPrefix names published classifier blobs. The embedded timestamp
// makes lexical order match chronological order.
const artifactPrefix = "building_classifier_"

// ArtifactName returns the blob name for a classifier trained at ts, e.g.
// "building_classifier_20260828_1405.gob".
func ArtifactName(ts time.Time) string {
	return fmt.Sprintf("%s%s.gob", artifactPrefix, ts.UTC().Format("20060102_1504"))
}

// Save serializes a classifier to the blob store under its artifact name.
func Save(ctx context.Context, bs blobstore.BlobStore, c *TrainedClassifier) (string, error) {
	if len(c.Weights) == 0 {
		return "", ErrNotFitted
	}

	data, err := (codec.Gob{}).Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode classifier: %w", err)
	}

	name := ArtifactName(c.TrainedAt)
	if err := bs.Put(ctx, name, data); err != nil {
		return "", fmt.Errorf("store classifier %q: %w", name, err)
	}
	return name, nil
}

// Load reads a classifier artifact by name.
func Load(ctx context.Context, bs blobstore.BlobStore, name string) (*TrainedClassifier, error) {
	blob, err := bs.Open(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrNoArtifact, name)
		}
		return nil, err
	}
	defer blob.Close()

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("read classifier %q: %w", name, err)
	}

	var c TrainedClassifier
	if err := (codec.Gob{}).Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode classifier %q: %w", name, err)
	}
	if len(c.Weights) == 0 || len(c.Weights) != len(c.Labels) {
		return nil, fmt.Errorf("classifier %q: inconsistent artifact", name)
	}
	return &c, nil
}

// Registry publishes and resolves classifier artifacts in a blob store.
// The CURRENT pointer names the artifact serving processes should load;
// older artifacts stay in place for rollback.
type Registry struct {
	bs     blobstore.BlobStore
	logger *slog.Logger
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Logger *slog.Logger
}

// NewRegistry creates a Registry over the given blob store.
func NewRegistry(bs blobstore.BlobStore, optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		Logger: slog.New(slog.DiscardHandler),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{bs: bs, logger: opts.Logger}
}

// Publish saves the classifier and moves the CURRENT pointer to it.
func (r *Registry) Publish(ctx context.Context, c *TrainedClassifier) (string, error) {
	name, err := Save(ctx, r.bs, c)
	if err != nil {
		return "", err
	}

	if err := r.bs.Put(ctx, blobstore.CurrentKey, []byte(name)); err != nil {
		return "", fmt.Errorf("publish %q: %w", name, err)
	}

	r.logger.Info("classifier published", "artifact", name, "classes", len(c.Labels))
	return name, nil
}

// Latest loads the currently published classifier. When no CURRENT pointer
// exists it falls back to the lexically newest artifact.
func (r *Registry) Latest(ctx context.Context) (*TrainedClassifier, string, error) {
	name, err := r.currentName(ctx)
	if err != nil {
		return nil, "", err
	}

	c, err := Load(ctx, r.bs, name)
	if err != nil {
		return nil, "", err
	}
	return c, name, nil
}

func (r *Registry) currentName(ctx context.Context) (string, error) {
	blob, err := r.bs.Open(ctx, blobstore.CurrentKey)
	if err == nil {
		defer blob.Close()

		data, err := blobstore.ReadAll(ctx, blob)
		if err != nil {
			return "", fmt.Errorf("read current pointer: %w", err)
		}
		name := strings.TrimSpace(string(data))
		if name == "" {
			return "", fmt.Errorf("%w: empty current pointer", ErrNoArtifact)
		}
		return name, nil
	}
	if !errors.Is(err, blobstore.ErrNotFound) {
		return "", err
	}

	names, err := r.bs.List(ctx, artifactPrefix)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", ErrNoArtifact
	}
	sort.Strings(names)
	return names[len(names)-1], nil
}
