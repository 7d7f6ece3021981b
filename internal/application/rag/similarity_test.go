package rag

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{0.5, 0.3, -0.2}
		got, err := CosineSimilarity(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		got, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, got, 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		got, err := CosineSimilarity([]float32{1, 2}, []float32{-1, -2})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, got, 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := []float32{0.1, 0.9, 0.4}
		b := []float32{0.7, 0.2, 0.5}
		ab, err := CosineSimilarity(a, b)
		require.NoError(t, err)
		ba, err := CosineSimilarity(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})

	t.Run("zero magnitude returns zero", func(t *testing.T) {
		got, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("bounded in unit interval", func(t *testing.T) {
		a := []float32{3.2, -1.1, 0.7, 2.4}
		b := []float32{-0.5, 2.2, 1.9, -3.3}
		got, err := CosineSimilarity(a, b)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, -1.0-1e-9)
		assert.LessOrEqual(t, got, 1.0+1e-9)
	})
}

func TestIsValidVector(t *testing.T) {
	assert.True(t, IsValidVector([]float32{0.1, -0.2, 0}))
	assert.False(t, IsValidVector(nil))
	assert.False(t, IsValidVector([]float32{}))
	assert.False(t, IsValidVector([]float32{1, float32(math.NaN())}))
	assert.False(t, IsValidVector([]float32{float32(math.Inf(1))}))
}
