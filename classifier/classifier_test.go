package classifier

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facade/blobstore"
	"github.com/hupe1980/facade/testutil"
)

// separableExamples builds a labeled corpus of tight clusters around one
// unit anchor per label.
func separableExamples(t *testing.T, labels []string, perLabel, dim int) []Example {
	t.Helper()
	rng := testutil.NewRNG(42)

	var examples []Example
	for _, label := range labels {
		anchor := rng.UnitVector(dim)
		for i := 0; i < perLabel; i++ {
			examples = append(examples, Example{
				Label:     label,
				Embedding: rng.Perturbed(anchor, 0.1),
			})
		}
	}
	return examples
}

func TestFitAndPredict(t *testing.T) {
	ctx := context.Background()
	labels := []string{"Gates Hall", "Hunt Library", "Wean Hall"}
	examples := separableExamples(t, labels, 20, 32)

	c, err := Fit(ctx, examples)
	require.NoError(t, err)

	assert.Equal(t, 32, c.Dimension)
	assert.Equal(t, []string{"Gates Hall", "Hunt Library", "Wean Hall"}, c.Labels)
	assert.False(t, c.TrainedAt.IsZero())

	acc, err := Accuracy(c, examples)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.95)

	pred, err := c.Predict(examples[0].Embedding)
	require.NoError(t, err)
	assert.Equal(t, "Gates Hall", pred.Label)
	assert.Greater(t, pred.Confidence, 0.5)

	var sum float64
	for _, p := range pred.Probabilities {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestFitDeterministic(t *testing.T) {
	ctx := context.Background()
	examples := separableExamples(t, []string{"A", "B"}, 10, 8)

	c1, err := Fit(ctx, examples)
	require.NoError(t, err)
	c2, err := Fit(ctx, examples)
	require.NoError(t, err)

	assert.Equal(t, c1.Weights, c2.Weights)
	assert.Equal(t, c1.Bias, c2.Bias)
}

func TestFitValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		_, err := Fit(ctx, nil)
		require.ErrorIs(t, err, ErrNoExamples)
	})

	t.Run("SingleClass", func(t *testing.T) {
		_, err := Fit(ctx, []Example{
			{Label: "A", Embedding: []float32{1, 0}},
			{Label: "A", Embedding: []float32{0, 1}},
		})
		require.ErrorIs(t, err, ErrTooFewClasses)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := Fit(ctx, []Example{
			{Label: "A", Embedding: []float32{1, 0}},
			{Label: "B", Embedding: []float32{0, 1, 0}},
		})
		require.Error(t, err)
	})
}

func TestPredictValidation(t *testing.T) {
	ctx := context.Background()
	c, err := Fit(ctx, separableExamples(t, []string{"A", "B"}, 10, 8))
	require.NoError(t, err)

	_, err = c.Predict([]float32{1, 0})
	require.Error(t, err)

	_, err = (&TrainedClassifier{}).Predict([]float32{1, 0})
	require.ErrorIs(t, err, ErrNotFitted)
}

func TestCrossValidate(t *testing.T) {
	ctx := context.Background()
	examples := separableExamples(t, []string{"A", "B", "C"}, 15, 16)

	acc, err := CrossValidate(ctx, examples, 5)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.8)

	_, err = CrossValidate(ctx, examples, 1)
	require.Error(t, err)
}

func TestArtifactRoundTrip(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	c, err := Fit(ctx, separableExamples(t, []string{"A", "B"}, 10, 8))
	require.NoError(t, err)

	reg := NewRegistry(bs)
	name, err := reg.Publish(ctx, c)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^building_classifier_\d{8}_\d{4}\.gob$`), name)

	got, gotName, err := reg.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, name, gotName)
	assert.Equal(t, c.Labels, got.Labels)
	assert.Equal(t, c.Weights, got.Weights)
	assert.Equal(t, c.Bias, got.Bias)
}

func TestRegistryFallsBackToNewestArtifact(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	old, err := Fit(ctx, separableExamples(t, []string{"A", "B"}, 10, 8))
	require.NoError(t, err)
	old.TrainedAt = time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	_, err = Save(ctx, bs, old)
	require.NoError(t, err)

	newer, err := Fit(ctx, separableExamples(t, []string{"A", "B"}, 10, 8))
	require.NoError(t, err)
	newer.TrainedAt = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	newerName, err := Save(ctx, bs, newer)
	require.NoError(t, err)

	// No CURRENT pointer written; the lexically newest artifact wins.
	_, gotName, err := NewRegistry(bs).Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, newerName, gotName)
}

func TestRegistryEmpty(t *testing.T) {
	_, _, err := NewRegistry(blobstore.NewMemoryStore()).Latest(context.Background())
	require.ErrorIs(t, err, ErrNoArtifact)
}
