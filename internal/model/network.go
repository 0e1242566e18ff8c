// internal/model/network.go
package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Activation names accepted in network artifacts.
const (
	actReLU    = "relu"
	actLinear  = "linear"
	actSigmoid = "sigmoid"
	actSoftmax = "softmax"
)

type layerSpec struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
	Residual   bool        `json:"residual,omitempty"`
}

type networkSpec struct {
	Layers []layerSpec `json:"layers"`
}

// Layer is one dense transform: activation(W*x + b), with an optional
// residual skip added before the activation.
type Layer struct {
	weights    *mat.Dense
	bias       *mat.VecDense
	activation string
	residual   bool
	in, out    int
}

// Network is a feed-forward stack of dense layers. A network with no
// layers is the identity, which lets branch-shaped models treat a raw
// passthrough like any other branch.
type Network struct {
	layers []Layer
}

func newNetwork(spec networkSpec) (*Network, error) {
	net := &Network{layers: make([]Layer, 0, len(spec.Layers))}
	for i, ls := range spec.Layers {
		layer, err := buildLayer(ls)
		if err != nil {
			return nil, fmt.Errorf("model: layer %d: %w", i, err)
		}
		if i > 0 && net.layers[i-1].out != layer.in {
			return nil, fmt.Errorf("model: layer %d expects %d inputs, previous layer emits %d",
				i, layer.in, net.layers[i-1].out)
		}
		net.layers = append(net.layers, layer)
	}
	return net, nil
}

func buildLayer(spec layerSpec) (Layer, error) {
	out := len(spec.Weights)
	if out == 0 {
		return Layer{}, fmt.Errorf("empty weight matrix")
	}
	in := len(spec.Weights[0])
	if in == 0 {
		return Layer{}, fmt.Errorf("empty weight row")
	}

	flat := make([]float64, 0, out*in)
	for r, row := range spec.Weights {
		if len(row) != in {
			return Layer{}, fmt.Errorf("ragged weight row %d: %d columns, want %d", r, len(row), in)
		}
		flat = append(flat, row...)
	}
	if len(spec.Bias) != out {
		return Layer{}, fmt.Errorf("bias length %d, weight rows %d", len(spec.Bias), out)
	}
	if spec.Residual && in != out {
		return Layer{}, fmt.Errorf("residual layer must be square, got %dx%d", out, in)
	}

	switch spec.Activation {
	case actReLU, actLinear, actSigmoid, actSoftmax:
	default:
		return Layer{}, fmt.Errorf("unknown activation %q", spec.Activation)
	}

	bias := make([]float64, out)
	copy(bias, spec.Bias)

	return Layer{
		weights:    mat.NewDense(out, in, flat),
		bias:       mat.NewVecDense(out, bias),
		activation: spec.Activation,
		residual:   spec.Residual,
		in:         in,
		out:        out,
	}, nil
}

// Forward runs the full layer stack.
func (n *Network) Forward(in []float64) ([]float64, error) {
	return n.forward(in, len(n.layers))
}

// Embed runs every layer except the last, yielding the penultimate
// layer's output as a dense embedding.
func (n *Network) Embed(in []float64) ([]float64, error) {
	if len(n.layers) == 0 {
		return append([]float64(nil), in...), nil
	}
	return n.forward(in, len(n.layers)-1)
}

func (n *Network) forward(in []float64, count int) ([]float64, error) {
	cur := append([]float64(nil), in...)
	for i := 0; i < count; i++ {
		l := n.layers[i]
		if len(cur) != l.in {
			return nil, fmt.Errorf("model: layer %d expects %d inputs, got %d", i, l.in, len(cur))
		}

		x := mat.NewVecDense(len(cur), cur)
		y := mat.NewVecDense(l.out, nil)
		y.MulVec(l.weights, x)
		y.AddVec(y, l.bias)

		next := y.RawVector().Data
		if l.residual {
			for j := range next {
				next[j] += cur[j]
			}
		}
		applyActivation(l.activation, next)
		cur = next
	}
	return cur, nil
}

// InputDim reports the first layer's width, -1 for an identity network.
func (n *Network) InputDim() int {
	if len(n.layers) == 0 {
		return -1
	}
	return n.layers[0].in
}

// OutputDim reports the last layer's width, -1 for an identity network.
func (n *Network) OutputDim() int {
	if len(n.layers) == 0 {
		return -1
	}
	return n.layers[len(n.layers)-1].out
}

func applyActivation(name string, v []float64) {
	switch name {
	case actReLU:
		for i, x := range v {
			if x < 0 {
				v[i] = 0
			}
		}
	case actSigmoid:
		for i, x := range v {
			v[i] = 1 / (1 + math.Exp(-x))
		}
	case actSoftmax:
		max := v[0]
		for _, x := range v[1:] {
			if x > max {
				max = x
			}
		}
		var sum float64
		for i, x := range v {
			v[i] = math.Exp(x - max)
			sum += v[i]
		}
		for i := range v {
			v[i] /= sum
		}
	}
}

// argmax returns the index of the largest value, first on ties.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
