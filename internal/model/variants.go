// internal/model/variants.go
package model

import (
	"fmt"

	"github.com/minerva-comp/minerva/internal/features"
)

// Predictor turns a scaled feature vector into a class index. Each
// variant shapes its own input internally: the plain networks consume
// the full vector, the wide-and-deep variant additionally slices the
// statistics prefix, and the hybrid variant embeds before classifying.
type Predictor interface {
	PredictClass(scaled []float64) (int, error)
}

type mlpPredictor struct {
	net *Network
}

func (p *mlpPredictor) PredictClass(scaled []float64) (int, error) {
	probs, err := p.net.Forward(scaled)
	if err != nil {
		return 0, err
	}
	return argmax(probs), nil
}

type wideDeepPredictor struct {
	deep *Network
	wide *Network
	head *Network
}

func (p *wideDeepPredictor) PredictClass(scaled []float64) (int, error) {
	if len(scaled) < features.StatCount {
		return 0, fmt.Errorf("model: vector of %d lacks the %d-element wide prefix",
			len(scaled), features.StatCount)
	}

	deepOut, err := p.deep.Forward(scaled)
	if err != nil {
		return 0, fmt.Errorf("model: deep branch: %w", err)
	}
	wideOut, err := p.wide.Forward(scaled[:features.StatCount])
	if err != nil {
		return 0, fmt.Errorf("model: wide branch: %w", err)
	}

	joined := make([]float64, 0, len(deepOut)+len(wideOut))
	joined = append(joined, deepOut...)
	joined = append(joined, wideOut...)

	probs, err := p.head.Forward(joined)
	if err != nil {
		return 0, fmt.Errorf("model: head: %w", err)
	}
	return argmax(probs), nil
}

type hybridPredictor struct {
	extractor *Network
	trees     *TreeEnsemble
}

func (p *hybridPredictor) PredictClass(scaled []float64) (int, error) {
	embedding, err := p.extractor.Embed(scaled)
	if err != nil {
		return 0, fmt.Errorf("model: embedding pass: %w", err)
	}
	// The ensemble emits the class index itself, no probability vector.
	return p.trees.PredictClass(embedding)
}
