// Package classifier implements the supervised recognition strategy: a
// multinomial logistic-regression model over embedding vectors, trained
// offline from a labeled corpus and published as a versioned artifact.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/facade/distance"
)

var (
	// ErrNotFitted is returned when a classifier has no trained weights.
	ErrNotFitted = errors.New("classifier not fitted")

	// ErrTooFewClasses is returned when training data holds fewer than
	// two distinct labels.
	ErrTooFewClasses = errors.New("training data must contain at least two classes")

	// ErrNoExamples is returned when training data is empty.
	ErrNoExamples = errors.New("training data is empty")

	// ErrNoArtifact is returned when no published classifier exists.
	ErrNoArtifact = errors.New("no classifier artifact published")
)

// Example is one labeled training vector.
type Example struct {
	Label     string
	Embedding []float32
}

// Prediction is the outcome of classifying one embedding.
type Prediction struct {
	// Label is the highest-probability class.
	Label string

	// Confidence is the softmax probability of Label.
	Confidence float64

	// Probabilities holds the full distribution, indexed like the
	// classifier's Labels.
	Probabilities []float64
}

// TrainedClassifier is a fitted multinomial logistic-regression model.
// Fields are exported for artifact serialization; treat them as read-only.
type TrainedClassifier struct {
	// Dimension of the embedding vectors the model was fitted on.
	Dimension int

	// Labels maps class index to label, sorted ascending.
	Labels []string

	// Weights holds one weight vector per class.
	Weights [][]float64

	// Bias holds one intercept per class.
	Bias []float64

	// C is the inverse regularization strength used during fitting.
	C float64

	// TrainedAt is the fit timestamp, also encoded in the artifact name.
	TrainedAt time.Time
}

// Predict classifies one embedding.
func (c *TrainedClassifier) Predict(embedding []float32) (Prediction, error) {
	if len(c.Weights) == 0 || len(c.Weights) != len(c.Labels) {
		return Prediction{}, ErrNotFitted
	}
	if len(embedding) != c.Dimension {
		return Prediction{}, fmt.Errorf("embedding dimension %d, classifier expects %d", len(embedding), c.Dimension)
	}
	if !distance.IsFinite(embedding) {
		return Prediction{}, fmt.Errorf("embedding contains non-finite values")
	}

	x := toFloat64(embedding)
	probs := c.probabilities(x)

	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	return Prediction{
		Label:         c.Labels[best],
		Confidence:    probs[best],
		Probabilities: probs,
	}, nil
}

// probabilities computes the softmax distribution for one sample.
func (c *TrainedClassifier) probabilities(x []float64) []float64 {
	scores := make([]float64, len(c.Labels))
	for i := range scores {
		scores[i] = floats.Dot(c.Weights[i], x) + c.Bias[i]
	}
	softmaxInPlace(scores)
	return scores
}

// softmaxInPlace converts scores to probabilities, shifting by the max for
// numerical stability.
func softmaxInPlace(scores []float64) {
	max := floats.Max(scores)
	var sum float64
	for i, s := range scores {
		e := math.Exp(s - max)
		scores[i] = e
		sum += e
	}
	floats.Scale(1/sum, scores)
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
