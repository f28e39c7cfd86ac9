package facade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/facade/model"
)

func TestAggregate(t *testing.T) {
	t.Run("GroupWithGreatestMassWins", func(t *testing.T) {
		// Two views of A at 0.9 and 0.85 outvote a single B at 0.88.
		outcome := aggregate([]model.SimilarityResult{
			{Label: "Gates Hall", Similarity: 0.9, Description: "best view", ReferencePath: "gates/a.jpg"},
			{Label: "Hunt Library", Similarity: 0.88},
			{Label: "Gates Hall", Similarity: 0.85, Description: "side view"},
		})

		assert.Equal(t, "Gates Hall", outcome.Label)
		assert.InDelta(t, 0.875, float64(outcome.Confidence), 1e-6)
		assert.Equal(t, "best view", outcome.Description)
		assert.Equal(t, "gates/a.jpg", outcome.ReferencePath)
		assert.False(t, outcome.Failed())
	})

	t.Run("SingleCandidate", func(t *testing.T) {
		outcome := aggregate([]model.SimilarityResult{
			{Label: "Wean Hall", Similarity: 0.72},
		})
		assert.Equal(t, "Wean Hall", outcome.Label)
		assert.InDelta(t, 0.72, float64(outcome.Confidence), 1e-6)
	})

	t.Run("EmptyIsUnknown", func(t *testing.T) {
		outcome := aggregate(nil)
		assert.True(t, outcome.IsUnknown())
		assert.Equal(t, model.UnknownLabel, outcome.Label)
		assert.Zero(t, outcome.Confidence)
	})

	t.Run("TieGoesToBetterRankedCandidate", func(t *testing.T) {
		outcome := aggregate([]model.SimilarityResult{
			{Label: "A", Similarity: 0.8},
			{Label: "B", Similarity: 0.8},
		})
		assert.Equal(t, "A", outcome.Label)
	})

	t.Run("BestMemberSuppliesMetadata", func(t *testing.T) {
		outcome := aggregate([]model.SimilarityResult{
			{Label: "A", Similarity: 0.7, Description: "weaker"},
			{Label: "A", Similarity: 0.9, Description: "stronger", ReferencePath: "a/2.jpg"},
		})
		assert.Equal(t, "stronger", outcome.Description)
		assert.Equal(t, "a/2.jpg", outcome.ReferencePath)
	})
}
