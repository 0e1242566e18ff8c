// Package modeltest writes small deterministic artifact sets so tests
// can load a real registry without shipping trained weights.
package modeltest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/minerva-comp/minerva/internal/features"
	"github.com/minerva-comp/minerva/internal/model"
)

// Fixture networks are bias-only, so each variant predicts a fixed
// class regardless of input. ExpectedClass reports which.
func ExpectedClass(name string, classes int) int {
	switch name {
	case model.ModelBaselineMLP:
		return 0
	case model.ModelRobustMLP:
		return 1 % classes
	case model.ModelWideDeep:
		return 2 % classes
	case model.ModelResNetMLP:
		return 3 % classes
	case model.ModelHybrid:
		return 4 % classes
	}
	return 0
}

type layer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
	Residual   bool        `json:"residual,omitempty"`
}

type network struct {
	Layers []layer `json:"layers"`
}

type wideDeep struct {
	Deep network `json:"deep"`
	Wide network `json:"wide"`
	Head network `json:"head"`
}

type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

type tree struct {
	Class int        `json:"class"`
	Nodes []treeNode `json:"nodes"`
}

type ensemble struct {
	Classes int    `json:"classes"`
	Trees   []tree `json:"trees"`
}

func zeros(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func oneHot(n, hot int) []float64 {
	v := make([]float64, n)
	v[hot] = 1
	return v
}

func biasOnly(in, out, hot int, activation string) network {
	return network{Layers: []layer{{
		Weights:    zeros(out, in),
		Bias:       oneHot(out, hot),
		Activation: activation,
	}}}
}

// WriteGzipJSON writes v as a gzip-compressed JSON artifact.
func WriteGzipJSON(tb testing.TB, path string, v interface{}) {
	tb.Helper()

	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create %s: %v", path, err)
	}
	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(v); err != nil {
		tb.Fatalf("encode %s: %v", path, err)
	}
	if err := gz.Close(); err != nil {
		tb.Fatalf("close gzip %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		tb.Fatalf("close %s: %v", path, err)
	}
}

// WriteManifest writes m as the directory's artifact index.
func WriteManifest(tb testing.TB, dir string, m *model.Manifest) {
	tb.Helper()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		tb.Fatalf("marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, model.ManifestName), data, 0600); err != nil {
		tb.Fatalf("write manifest: %v", err)
	}
}

// DefaultManifest names the artifact files WriteArtifacts produces.
func DefaultManifest() *model.Manifest {
	return &model.Manifest{
		Version:      1,
		VectorLength: features.VectorLen,
		Artifacts: model.ManifestArtifacts{
			Scaler:          "scaler.json.gz",
			LabelEncoder:    "label_encoder.json.gz",
			HybridExtractor: "feature_extractor.json.gz",
			Models: map[string]model.ModelEntry{
				model.ModelBaselineMLP: {File: "baseline_mlp.json.gz", Kind: "mlp"},
				model.ModelRobustMLP:   {File: "robust_mlp.json.gz", Kind: "mlp"},
				model.ModelWideDeep:    {File: "wide_deep.json.gz", Kind: "wide_deep"},
				model.ModelResNetMLP:   {File: "resnet_mlp.json.gz", Kind: "mlp"},
				model.ModelHybrid:      {File: "xgb_classifier.json.gz", Kind: "boosted_trees"},
			},
		},
	}
}

// WriteArtifacts writes a complete, internally consistent artifact set
// under dir for the given labels.
func WriteArtifacts(tb testing.TB, dir string, labels []string) {
	tb.Helper()

	n := len(labels)
	if n == 0 {
		tb.Fatal("modeltest: need at least one label")
	}

	WriteManifest(tb, dir, DefaultManifest())

	WriteGzipJSON(tb, filepath.Join(dir, "scaler.json.gz"), map[string][]float64{
		"mean":  make([]float64, features.VectorLen),
		"scale": ones(features.VectorLen),
	})
	WriteGzipJSON(tb, filepath.Join(dir, "label_encoder.json.gz"), map[string][]string{
		"classes": labels,
	})

	// Embedding is the hidden layer's bias; the final layer only exists
	// so there is a penultimate one.
	embedding := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	extractor := network{Layers: []layer{
		{Weights: zeros(8, features.VectorLen), Bias: embedding, Activation: "linear"},
		{Weights: zeros(n, 8), Bias: make([]float64, n), Activation: "softmax"},
	}}
	WriteGzipJSON(tb, filepath.Join(dir, "feature_extractor.json.gz"), extractor)

	WriteGzipJSON(tb, filepath.Join(dir, "baseline_mlp.json.gz"),
		biasOnly(features.VectorLen, n, ExpectedClass(model.ModelBaselineMLP, n), "softmax"))
	WriteGzipJSON(tb, filepath.Join(dir, "robust_mlp.json.gz"),
		biasOnly(features.VectorLen, n, ExpectedClass(model.ModelRobustMLP, n), "softmax"))

	WriteGzipJSON(tb, filepath.Join(dir, "wide_deep.json.gz"), wideDeep{
		Deep: network{Layers: []layer{{
			Weights:    zeros(4, features.VectorLen),
			Bias:       make([]float64, 4),
			Activation: "linear",
		}}},
		Wide: network{}, // identity passthrough of the 12-stat prefix
		Head: network{Layers: []layer{{
			Weights:    zeros(n, 4+features.StatCount),
			Bias:       oneHot(n, ExpectedClass(model.ModelWideDeep, n)),
			Activation: "softmax",
		}}},
	})

	resnet := network{Layers: []layer{
		{Weights: zeros(16, features.VectorLen), Bias: make([]float64, 16), Activation: "relu"},
		{Weights: zeros(16, 16), Bias: make([]float64, 16), Activation: "linear", Residual: true},
		{Weights: zeros(n, 16), Bias: oneHot(n, ExpectedClass(model.ModelResNetMLP, n)), Activation: "softmax"},
	}}
	WriteGzipJSON(tb, filepath.Join(dir, "resnet_mlp.json.gz"), resnet)

	hybridClass := ExpectedClass(model.ModelHybrid, n)
	WriteGzipJSON(tb, filepath.Join(dir, "xgb_classifier.json.gz"), ensemble{
		Classes: n,
		Trees: []tree{
			{Class: hybridClass, Nodes: []treeNode{{Feature: -1, Value: 1}}},
			// One real split over the embedding: slot 0 is 0.1 >= 0.05.
			{Class: hybridClass, Nodes: []treeNode{
				{Feature: 0, Threshold: 0.05, Left: 1, Right: 2},
				{Feature: -1, Value: 0},
				{Feature: -1, Value: 0.5},
			}},
		},
	})
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
