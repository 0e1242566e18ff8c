package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalerTransform(t *testing.T) {
	t.Run("standard score", func(t *testing.T) {
		s, err := NewScaler([]float64{10, 0}, []float64{2, 4})
		require.NoError(t, err)

		out, err := s.Transform([]float64{14, 8})
		require.NoError(t, err)
		assert.Equal(t, []float64{2, 2}, out)
	})

	t.Run("zero scale divides by one", func(t *testing.T) {
		s, err := NewScaler([]float64{5}, []float64{0})
		require.NoError(t, err)

		out, err := s.Transform([]float64{8})
		require.NoError(t, err)
		assert.Equal(t, []float64{3}, out)
	})

	t.Run("width mismatch errors", func(t *testing.T) {
		s, err := NewScaler([]float64{0, 0}, []float64{1, 1})
		require.NoError(t, err)

		_, err = s.Transform([]float64{1})
		assert.Error(t, err)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		s, err := NewScaler([]float64{1}, []float64{1})
		require.NoError(t, err)

		in := []float64{4}
		_, err = s.Transform(in)
		require.NoError(t, err)
		assert.Equal(t, []float64{4}, in)
	})
}

func TestNewScalerRejects(t *testing.T) {
	_, err := NewScaler(nil, nil)
	assert.Error(t, err)

	_, err = NewScaler([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}
