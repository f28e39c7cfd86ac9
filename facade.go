package facade

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/facade/classifier"
	"github.com/hupe1980/facade/embedder"
	"github.com/hupe1980/facade/model"
	"github.com/hupe1980/facade/store"
)

// Engine answers recognition requests over a vector store of labeled
// reference embeddings and an external vision encoder.
//
// Engine is safe for concurrent use. The similarity path never fails a
// request because nothing matched; "Unknown" is a successful outcome.
type Engine struct {
	store    store.Store
	embedder embedder.Embedder
	registry *classifier.Registry
	opts     Options

	current atomic.Pointer[publishedClassifier]
	loads   singleflight.Group
}

// publishedClassifier is a classifier artifact resolved from the registry.
type publishedClassifier struct {
	model    *classifier.TrainedClassifier
	artifact string
}

// New creates an Engine over the given store and embedder.
func New(s store.Store, e embedder.Embedder, optFns ...func(o *Options)) *Engine {
	return &Engine{
		store:    s,
		embedder: e,
		opts:     applyEngineOptions(optFns),
	}
}

// WithClassifierRegistry attaches an artifact registry, enabling the
// supervised classification path. The published classifier is loaded
// lazily on the first Classify call.
func (e *Engine) WithClassifierRegistry(r *classifier.Registry) *Engine {
	e.registry = r
	return e
}

// Recognize identifies the building for an embedding vector: the nearest
// candidates above the threshold are aggregated into one outcome. An empty
// candidate set yields the "Unknown" outcome, not an error.
//
// The returned outcome is always serializable: on error it carries the
// matching failure kind, and the error is non-nil exactly when the outcome
// is a failure.
func (e *Engine) Recognize(ctx context.Context, embedding []float32) (model.RecognitionOutcome, error) {
	start := time.Now()

	results, err := e.store.QuerySimilar(ctx, embedding, e.opts.CandidateLimit, e.opts.Threshold)
	e.opts.Metrics.RecordQuery(len(results), time.Since(start), err)
	if err != nil {
		e.opts.Logger.LogRecognize(ctx, "", 0, 0, err)
		e.opts.Metrics.RecordRecognize(time.Since(start), err)
		return model.Failed(queryFailure(err)), translateError("recognize", err)
	}

	outcome := aggregate(results)
	e.opts.Logger.LogRecognize(ctx, outcome.Label, outcome.Confidence, len(results), nil)
	e.opts.Metrics.RecordRecognize(time.Since(start), nil)
	return outcome, nil
}

// RecognizeImage identifies the building in a base64 image payload. A
// data-URL header is tolerated. The payload is decoded, embedded by the
// external encoder and handed to Recognize.
func (e *Engine) RecognizeImage(ctx context.Context, payload string) (model.RecognitionOutcome, error) {
	start := time.Now()

	vec, err := e.embedPayload(ctx, payload)
	if err != nil {
		e.opts.Logger.LogRecognize(ctx, "", 0, 0, err)
		e.opts.Metrics.RecordRecognize(time.Since(start), err)
		return model.Failed(embedFailure(err)), translateError("recognize", err)
	}
	return e.Recognize(ctx, vec)
}

// Classify identifies the building for an embedding vector with the
// published classifier instead of similarity search. Predictions below the
// threshold come back as the "Unknown" outcome.
func (e *Engine) Classify(ctx context.Context, embedding []float32) (model.RecognitionOutcome, error) {
	start := time.Now()

	outcome, err := e.classify(ctx, embedding)
	e.opts.Metrics.RecordClassify(time.Since(start), err)
	if err != nil {
		e.opts.Logger.LogClassify(ctx, "", 0, err)
		return outcome, translateError("classify", err)
	}

	e.opts.Logger.LogClassify(ctx, outcome.Label, float64(outcome.Confidence), nil)
	return outcome, nil
}

// ClassifyImage classifies the building in a base64 image payload.
func (e *Engine) ClassifyImage(ctx context.Context, payload string) (model.RecognitionOutcome, error) {
	vec, err := e.embedPayload(ctx, payload)
	if err != nil {
		e.opts.Logger.LogClassify(ctx, "", 0, err)
		e.opts.Metrics.RecordClassify(0, err)
		return model.Failed(embedFailure(err)), translateError("classify", err)
	}
	return e.Classify(ctx, vec)
}

func (e *Engine) classify(ctx context.Context, embedding []float32) (model.RecognitionOutcome, error) {
	if e.registry == nil {
		return model.Failed(model.FailureValidation), ErrNoClassifier
	}

	pc, err := e.loadClassifier(ctx)
	if err != nil {
		return model.Failed(classifyFailure(err)), err
	}

	pred, err := pc.model.Predict(embedding)
	if err != nil {
		return model.Failed(model.FailureValidation), err
	}

	if pred.Confidence < float64(e.opts.Threshold) {
		return model.Unknown(), nil
	}
	return model.RecognitionOutcome{
		Label:      pred.Label,
		Confidence: float32(pred.Confidence),
	}, nil
}

// ReloadClassifier re-resolves the published classifier, picking up a new
// artifact after a training run. Returns the loaded artifact name.
func (e *Engine) ReloadClassifier(ctx context.Context) (string, error) {
	if e.registry == nil {
		return "", ErrNoClassifier
	}

	m, artifact, err := e.registry.Latest(ctx)
	e.opts.Logger.LogClassifierLoad(ctx, artifact, err)
	if err != nil {
		return "", translateError("reload classifier", err)
	}

	e.current.Store(&publishedClassifier{model: m, artifact: artifact})
	return artifact, nil
}

// loadClassifier resolves the published classifier once; concurrent first
// calls share a single registry lookup. After the load the handle is
// immutable and shared read-only.
func (e *Engine) loadClassifier(ctx context.Context) (*publishedClassifier, error) {
	if pc := e.current.Load(); pc != nil {
		return pc, nil
	}

	v, err, _ := e.loads.Do("classifier", func() (any, error) {
		if pc := e.current.Load(); pc != nil {
			return pc, nil
		}

		m, artifact, err := e.registry.Latest(ctx)
		e.opts.Logger.LogClassifierLoad(ctx, artifact, err)
		if err != nil {
			return nil, err
		}

		pc := &publishedClassifier{model: m, artifact: artifact}
		e.current.Store(pc)
		return pc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*publishedClassifier), nil
}

// embedPayload decodes a base64 payload and embeds it.
func (e *Engine) embedPayload(ctx context.Context, payload string) ([]float32, error) {
	image, err := embedder.DecodePayload(payload)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	vec, err := e.embedder.Embed(ctx, image)
	e.opts.Metrics.RecordEmbed(time.Since(start), err)
	return vec, err
}
