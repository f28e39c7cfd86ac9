package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	assert.InDelta(t, 1.0, Dot([]float32{1, 0, 0}, []float32{1, 0, 0}), 1e-6)
	assert.InDelta(t, 0.0, Dot([]float32{1, 0, 0}, []float32{0, 1, 0}), 1e-6)
	assert.InDelta(t, -1.0, Dot([]float32{0, 1}, []float32{0, -1}), 1e-6)
}

func TestSquaredL2(t *testing.T) {
	assert.InDelta(t, 0.0, SquaredL2([]float32{1, 2}, []float32{1, 2}), 1e-6)
	assert.InDelta(t, 2.0, SquaredL2([]float32{1, 0}, []float32{0, 1}), 1e-6)
}

func TestNormalizeL2(t *testing.T) {
	t.Run("InPlace", func(t *testing.T) {
		v := []float32{3, 4}
		require.True(t, NormalizeL2InPlace(v))
		assert.InDelta(t, 1.0, float64(Norm(v)), 1e-6)
		assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
	})

	t.Run("ZeroNorm", func(t *testing.T) {
		require.False(t, NormalizeL2InPlace([]float32{0, 0, 0}))

		_, ok := NormalizeL2Copy([]float32{0, 0})
		require.False(t, ok)
	})

	t.Run("CopyLeavesSourceIntact", func(t *testing.T) {
		src := []float32{0, 2}
		dst, ok := NormalizeL2Copy(src)
		require.True(t, ok)
		assert.Equal(t, []float32{0, 2}, src)
		assert.InDelta(t, 1.0, float64(dst[1]), 1e-6)
	})
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite([]float32{1, -2, 0.5}))
	assert.False(t, IsFinite([]float32{1, float32(math.NaN())}))
	assert.False(t, IsFinite([]float32{float32(math.Inf(1))}))
	assert.False(t, IsFinite([]float32{float32(math.Inf(-1)), 0}))
}

func TestProvider(t *testing.T) {
	cosine, err := Provider(MetricCosine)
	require.NoError(t, err)

	// Closer vectors must produce smaller distances.
	a := []float32{1, 0}
	require.Less(t, cosine(a, []float32{1, 0}), cosine(a, []float32{0, 1}))

	_, err = Provider(Metric(99))
	require.Error(t, err)
}
