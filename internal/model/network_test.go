package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkForward(t *testing.T) {
	t.Run("dense layer computes Wx plus b", func(t *testing.T) {
		net, err := newNetwork(networkSpec{Layers: []layerSpec{{
			Weights:    [][]float64{{1, 2}, {3, 4}},
			Bias:       []float64{0.5, -0.5},
			Activation: actLinear,
		}}})
		require.NoError(t, err)

		out, err := net.Forward([]float64{1, 1})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{3.5, 6.5}, out, 1e-12)
	})

	t.Run("relu clamps negatives", func(t *testing.T) {
		net, err := newNetwork(networkSpec{Layers: []layerSpec{{
			Weights:    [][]float64{{1}, {-1}},
			Bias:       []float64{0, 0},
			Activation: actReLU,
		}}})
		require.NoError(t, err)

		out, err := net.Forward([]float64{2})
		require.NoError(t, err)
		assert.Equal(t, []float64{2, 0}, out)
	})

	t.Run("softmax normalizes to one", func(t *testing.T) {
		net, err := newNetwork(networkSpec{Layers: []layerSpec{{
			Weights:    [][]float64{{1, 0}, {0, 1}, {1, 1}},
			Bias:       []float64{0, 0, 0},
			Activation: actSoftmax,
		}}})
		require.NoError(t, err)

		out, err := net.Forward([]float64{1, 2})
		require.NoError(t, err)

		var sum float64
		for _, p := range out {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
		assert.Equal(t, 2, argmax(out))
	})

	t.Run("residual adds input before activation", func(t *testing.T) {
		net, err := newNetwork(networkSpec{Layers: []layerSpec{{
			Weights:    [][]float64{{0, 0}, {0, 0}},
			Bias:       []float64{1, -5},
			Activation: actReLU,
			Residual:   true,
		}}})
		require.NoError(t, err)

		out, err := net.Forward([]float64{2, 3})
		require.NoError(t, err)
		// (0+1+2, 0-5+3) then relu
		assert.Equal(t, []float64{3, 0}, out)
	})

	t.Run("identity network copies input", func(t *testing.T) {
		net, err := newNetwork(networkSpec{})
		require.NoError(t, err)

		in := []float64{1, 2, 3}
		out, err := net.Forward(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
		assert.Equal(t, -1, net.InputDim())
	})

	t.Run("input width mismatch errors", func(t *testing.T) {
		net, err := newNetwork(networkSpec{Layers: []layerSpec{{
			Weights:    [][]float64{{1, 2}},
			Bias:       []float64{0},
			Activation: actLinear,
		}}})
		require.NoError(t, err)

		_, err = net.Forward([]float64{1, 2, 3})
		assert.Error(t, err)
	})
}

func TestNetworkEmbed(t *testing.T) {
	net, err := newNetwork(networkSpec{Layers: []layerSpec{
		{Weights: [][]float64{{2, 0}, {0, 2}}, Bias: []float64{0, 0}, Activation: actLinear},
		{Weights: [][]float64{{1, 1}}, Bias: []float64{0}, Activation: actSoftmax},
	}})
	require.NoError(t, err)

	emb, err := net.Embed([]float64{3, 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 8}, emb)
}

func TestBuildLayerRejects(t *testing.T) {
	cases := []struct {
		name string
		spec layerSpec
	}{
		{"ragged rows", layerSpec{
			Weights: [][]float64{{1, 2}, {3}}, Bias: []float64{0, 0}, Activation: actLinear}},
		{"bias mismatch", layerSpec{
			Weights: [][]float64{{1, 2}}, Bias: []float64{0, 0}, Activation: actLinear}},
		{"non-square residual", layerSpec{
			Weights: [][]float64{{1, 2}}, Bias: []float64{0}, Activation: actLinear, Residual: true}},
		{"unknown activation", layerSpec{
			Weights: [][]float64{{1}}, Bias: []float64{0}, Activation: "swish"}},
		{"empty matrix", layerSpec{Activation: actLinear}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newNetwork(networkSpec{Layers: []layerSpec{tc.spec}})
			assert.Error(t, err)
		})
	}
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, 2, argmax([]float64{0.1, 0.3, 0.6}))
	// first wins on ties
	assert.Equal(t, 0, argmax([]float64{0.5, 0.5}))
	assert.Equal(t, 0, argmax([]float64{1}))
}
