package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/facade/distance"
)

const (
	// DefaultC is the inverse regularization strength. Larger values
	// regularize less.
	DefaultC = 1.0

	// DefaultMaxIter bounds full-batch gradient descent.
	DefaultMaxIter = 300

	// DefaultLearningRate is tuned for unit-norm embedding features.
	DefaultLearningRate = 0.5

	// DefaultTolerance stops fitting once the loss improvement per
	// iteration drops below it.
	DefaultTolerance = 1e-6
)

// FitOptions configures Fit and CrossValidate.
type FitOptions struct {
	// C is the inverse regularization strength.
	C float64

	// MaxIter bounds the number of gradient-descent iterations.
	MaxIter int

	// LearningRate is the gradient step size.
	LearningRate float64

	// Tolerance is the loss-improvement stopping criterion.
	Tolerance float64

	// Seed drives the cross-validation shuffle.
	Seed int64

	// Logger for fit diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger
}

func applyFitOptions(optFns []func(o *FitOptions)) FitOptions {
	opts := FitOptions{
		C:            DefaultC,
		MaxIter:      DefaultMaxIter,
		LearningRate: DefaultLearningRate,
		Tolerance:    DefaultTolerance,
		Seed:         1,
		Logger:       slog.New(slog.DiscardHandler),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}

// Fit trains a multinomial logistic-regression model with L2
// regularization by full-batch gradient descent. Training is
// deterministic for a given input order.
func Fit(ctx context.Context, examples []Example, optFns ...func(o *FitOptions)) (*TrainedClassifier, error) {
	opts := applyFitOptions(optFns)

	labels, dim, err := validateExamples(examples)
	if err != nil {
		return nil, err
	}

	classIdx := make(map[string]int, len(labels))
	for i, l := range labels {
		classIdx[l] = i
	}

	n := len(examples)
	k := len(labels)

	xs := make([][]float64, n)
	ys := make([]int, n)
	for i, ex := range examples {
		xs[i] = toFloat64(ex.Embedding)
		ys[i] = classIdx[ex.Label]
	}

	weights := make([][]float64, k)
	gradW := make([][]float64, k)
	for c := range weights {
		weights[c] = make([]float64, dim)
		gradW[c] = make([]float64, dim)
	}
	bias := make([]float64, k)
	gradB := make([]float64, k)

	// Minimizes mean cross-entropy plus ||w||^2 / (2*C*n).
	lambda := 1 / (opts.C * float64(n))
	invN := 1 / float64(n)

	prevLoss := math.Inf(1)
	scores := make([]float64, k)

	for iter := 0; iter < opts.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for c := range gradW {
			for j := range gradW[c] {
				gradW[c][j] = 0
			}
			gradB[c] = 0
		}

		var loss float64
		for i := range xs {
			for c := range scores {
				scores[c] = floats.Dot(weights[c], xs[i]) + bias[c]
			}
			softmaxInPlace(scores)

			loss -= math.Log(math.Max(scores[ys[i]], 1e-15))

			for c := range scores {
				p := scores[c]
				if c == ys[i] {
					p -= 1
				}
				floats.AddScaled(gradW[c], p*invN, xs[i])
				gradB[c] += p * invN
			}
		}
		loss *= invN

		for c := range weights {
			loss += 0.5 * lambda * floats.Dot(weights[c], weights[c])
			floats.AddScaled(gradW[c], lambda, weights[c])
			floats.AddScaled(weights[c], -opts.LearningRate, gradW[c])
			bias[c] -= opts.LearningRate * gradB[c]
		}

		if prevLoss-loss < opts.Tolerance {
			opts.Logger.Debug("fit converged", "iteration", iter, "loss", loss)
			break
		}
		prevLoss = loss
	}

	return &TrainedClassifier{
		Dimension: dim,
		Labels:    labels,
		Weights:   weights,
		Bias:      bias,
		C:         opts.C,
		TrainedAt: time.Now().UTC(),
	}, nil
}

// validateExamples checks consistency and returns the sorted label set and
// the embedding dimension.
func validateExamples(examples []Example) ([]string, int, error) {
	if len(examples) == 0 {
		return nil, 0, ErrNoExamples
	}

	dim := len(examples[0].Embedding)
	seen := make(map[string]struct{})
	for i, ex := range examples {
		if len(ex.Embedding) == 0 {
			return nil, 0, fmt.Errorf("example %d: empty embedding", i)
		}
		if len(ex.Embedding) != dim {
			return nil, 0, fmt.Errorf("example %d: dimension %d, expected %d", i, len(ex.Embedding), dim)
		}
		if !distance.IsFinite(ex.Embedding) {
			return nil, 0, fmt.Errorf("example %d: non-finite embedding", i)
		}
		if ex.Label == "" {
			return nil, 0, fmt.Errorf("example %d: empty label", i)
		}
		seen[ex.Label] = struct{}{}
	}
	if len(seen) < 2 {
		return nil, 0, ErrTooFewClasses
	}

	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	return labels, dim, nil
}

// Accuracy evaluates a fitted classifier against labeled examples.
func Accuracy(c *TrainedClassifier, examples []Example) (float64, error) {
	if len(examples) == 0 {
		return 0, ErrNoExamples
	}

	var correct int
	for _, ex := range examples {
		pred, err := c.Predict(ex.Embedding)
		if err != nil {
			return 0, err
		}
		if pred.Label == ex.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(examples)), nil
}

// Report summarizes a training run.
type Report struct {
	Examples      int     `json:"examples"`
	Classes       int     `json:"classes"`
	Folds         int     `json:"folds"`
	TrainAccuracy float64 `json:"trainAccuracy"`
	CVAccuracy    float64 `json:"cvAccuracy"`
}

// CrossValidate estimates generalization accuracy with k-fold
// cross-validation over a seeded shuffle of the examples.
func CrossValidate(ctx context.Context, examples []Example, folds int, optFns ...func(o *FitOptions)) (float64, error) {
	opts := applyFitOptions(optFns)

	if folds < 2 {
		return 0, fmt.Errorf("cross-validation needs at least 2 folds, got %d", folds)
	}
	if folds > len(examples) {
		return 0, fmt.Errorf("cross-validation needs at least one example per fold: %d folds, %d examples", folds, len(examples))
	}

	shuffled := make([]Example, len(examples))
	copy(shuffled, examples)
	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var correct, total int
	for f := 0; f < folds; f++ {
		lo := f * len(shuffled) / folds
		hi := (f + 1) * len(shuffled) / folds

		train := make([]Example, 0, len(shuffled)-(hi-lo))
		train = append(train, shuffled[:lo]...)
		train = append(train, shuffled[hi:]...)
		test := shuffled[lo:hi]

		c, err := Fit(ctx, train, optFns...)
		if err != nil {
			if errors.Is(err, ErrTooFewClasses) {
				// A fold may swallow all examples of a rare class.
				continue
			}
			return 0, fmt.Errorf("fold %d: %w", f, err)
		}

		for _, ex := range test {
			pred, err := c.Predict(ex.Embedding)
			if err != nil {
				return 0, fmt.Errorf("fold %d: %w", f, err)
			}
			if pred.Label == ex.Label {
				correct++
			}
			total++
		}
	}

	if total == 0 {
		return 0, ErrTooFewClasses
	}
	return float64(correct) / float64(total), nil
}
