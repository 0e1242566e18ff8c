package model

import "fmt"

type treeNode struct {
	// Feature < 0 marks a leaf carrying Value.
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

type boostedTree struct {
	Class int        `json:"class"`
	Nodes []treeNode `json:"nodes"`
}

// TreeEnsemble is a gradient-boosted forest. Each tree contributes an
// additive margin to a single class; the prediction is the class with
// the largest summed margin.
type TreeEnsemble struct {
	Classes int           `json:"classes"`
	Trees   []boostedTree `json:"trees"`
}

func (e *TreeEnsemble) validate() error {
	if e.Classes < 1 {
		return fmt.Errorf("model: ensemble declares %d classes", e.Classes)
	}
	if len(e.Trees) == 0 {
		return fmt.Errorf("model: ensemble has no trees")
	}
	for i, tr := range e.Trees {
		if tr.Class < 0 || tr.Class >= e.Classes {
			return fmt.Errorf("model: tree %d targets class %d of %d", i, tr.Class, e.Classes)
		}
		if len(tr.Nodes) == 0 {
			return fmt.Errorf("model: tree %d has no nodes", i)
		}
		for j, n := range tr.Nodes {
			if n.Feature < 0 {
				continue
			}
			if n.Left < 0 || n.Left >= len(tr.Nodes) || n.Right < 0 || n.Right >= len(tr.Nodes) {
				return fmt.Errorf("model: tree %d node %d child out of range", i, j)
			}
		}
	}
	return nil
}

// PredictClass sums per-class margins over all trees and returns the
// winning class index directly.
func (e *TreeEnsemble) PredictClass(features []float64) (int, error) {
	margins := make([]float64, e.Classes)
	for i := range e.Trees {
		v, err := e.Trees[i].score(features)
		if err != nil {
			return 0, fmt.Errorf("model: tree %d: %w", i, err)
		}
		margins[e.Trees[i].Class] += v
	}
	return argmax(margins), nil
}

func (t *boostedTree) score(features []float64) (float64, error) {
	idx := 0
	// A well-formed tree terminates within len(Nodes) hops.
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[idx]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if n.Feature >= len(features) {
			return 0, fmt.Errorf("split feature %d outside vector of %d", n.Feature, len(features))
		}
		if features[n.Feature] < n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
	return 0, fmt.Errorf("split cycle detected")
}
