package facade

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/facade/classifier"
	"github.com/hupe1980/facade/embedder"
	"github.com/hupe1980/facade/model"
	"github.com/hupe1980/facade/store"
)

// ErrNoClassifier is returned when a classification request reaches an
// engine configured without an artifact registry.
var ErrNoClassifier = errors.New("no classifier registry configured")

// translateError tags an internal error with the failing operation while
// keeping the underlying typed errors reachable via errors.Is/As.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// embedFailure maps an embedder error to the outcome failure kind.
func embedFailure(err error) model.FailureKind {
	switch {
	case errors.Is(err, embedder.ErrMalformedImage):
		return model.FailureValidation
	case errors.Is(err, embedder.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return model.FailureEmbedderTimeout
	default:
		return model.FailureEmbedder
	}
}

// queryFailure maps a store error to the outcome failure kind.
func queryFailure(err error) model.FailureKind {
	var dm *store.ErrDimensionMismatch
	switch {
	case errors.As(err, &dm),
		errors.Is(err, store.ErrEmptyEmbedding),
		errors.Is(err, store.ErrNotFinite),
		errors.Is(err, store.ErrInvalidLimit),
		errors.Is(err, store.ErrInvalidThreshold):
		return model.FailureValidation
	default:
		return model.FailureStorageUnavailable
	}
}

// classifyFailure maps a classifier error to the outcome failure kind.
func classifyFailure(err error) model.FailureKind {
	switch {
	case errors.Is(err, classifier.ErrNoArtifact), errors.Is(err, classifier.ErrNotFitted):
		return model.FailureStorageUnavailable
	default:
		return model.FailureValidation
	}
}
