// internal/model/registry.go
package model

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/minerva-comp/minerva/internal/features"
)

// The five model variants a caller may select, in presentation order.
const (
	ModelBaselineMLP = "Baseline MLP"
	ModelRobustMLP   = "Robust MLP"
	ModelWideDeep    = "Wide & Deep"
	ModelResNetMLP   = "ResNet MLP"
	ModelHybrid      = "DL-ML Hybrid"
)

// ErrUnknownModel marks a model name outside the fixed variant set.
var ErrUnknownModel = errors.New("model: unknown model name")

// ModelNames lists the selectable variants in presentation order.
func ModelNames() []string {
	return []string{ModelBaselineMLP, ModelRobustMLP, ModelWideDeep, ModelResNetMLP, ModelHybrid}
}

// Registry holds every pretrained artifact for the process's lifetime.
// It is built once at startup and read-only afterwards, so it is safe
// to share across requests without locking.
type Registry struct {
	dir        string
	scaler     *Scaler
	labels     *LabelEncoder
	predictors map[string]Predictor
}

// LoadRegistry eagerly loads and cross-checks every artifact under dir.
// tools is the benchmark runner's tool set; the label encoder must be a
// bijection onto it. Any failure here is fatal to startup.
func LoadRegistry(dir string, tools []string, logger *zap.Logger) (*Registry, error) {
	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	if manifest.VectorLength != features.VectorLen {
		return nil, fmt.Errorf("model: manifest built for %d-dim vectors, pipeline produces %d",
			manifest.VectorLength, features.VectorLen)
	}

	var ss scalerSpec
	if err := readArtifact(dir, manifest.Artifacts.Scaler, &ss); err != nil {
		return nil, err
	}
	scaler, err := NewScaler(ss.Mean, ss.Scale)
	if err != nil {
		return nil, err
	}
	if scaler.Len() != features.VectorLen {
		return nil, fmt.Errorf("model: scaler fitted on %d features, pipeline produces %d",
			scaler.Len(), features.VectorLen)
	}

	var ls labelSpec
	if err := readArtifact(dir, manifest.Artifacts.LabelEncoder, &ls); err != nil {
		return nil, err
	}
	labels, err := NewLabelEncoder(ls.Classes)
	if err != nil {
		return nil, err
	}
	if err := labels.CoversExactly(tools); err != nil {
		return nil, err
	}

	var es networkSpec
	if err := readArtifact(dir, manifest.Artifacts.HybridExtractor, &es); err != nil {
		return nil, err
	}
	extractor, err := newNetwork(es)
	if err != nil {
		return nil, fmt.Errorf("model: hybrid extractor: %w", err)
	}
	if extractor.InputDim() != features.VectorLen {
		return nil, fmt.Errorf("model: hybrid extractor expects %d inputs, pipeline produces %d",
			extractor.InputDim(), features.VectorLen)
	}

	if len(manifest.Artifacts.Models) != len(ModelNames()) {
		return nil, fmt.Errorf("model: manifest lists %d models, want %d",
			len(manifest.Artifacts.Models), len(ModelNames()))
	}

	predictors := make(map[string]Predictor, len(ModelNames()))
	for _, name := range ModelNames() {
		entry, ok := manifest.Artifacts.Models[name]
		if !ok {
			return nil, fmt.Errorf("model: manifest missing %q", name)
		}
		p, err := buildPredictor(dir, entry, extractor, labels.Len())
		if err != nil {
			return nil, fmt.Errorf("model: %s: %w", name, err)
		}
		predictors[name] = p
	}

	logger.Info("model artifacts loaded",
		zap.String("dir", dir),
		zap.Int("models", len(predictors)),
		zap.Strings("labels", labels.Classes()))

	return &Registry{
		dir:        dir,
		scaler:     scaler,
		labels:     labels,
		predictors: predictors,
	}, nil
}

func buildPredictor(dir string, entry ModelEntry, extractor *Network, classes int) (Predictor, error) {
	switch entry.Kind {
	case kindMLP:
		var spec networkSpec
		if err := readArtifact(dir, entry.File, &spec); err != nil {
			return nil, err
		}
		net, err := newNetwork(spec)
		if err != nil {
			return nil, err
		}
		if net.InputDim() != features.VectorLen {
			return nil, fmt.Errorf("network expects %d inputs, pipeline produces %d",
				net.InputDim(), features.VectorLen)
		}
		if net.OutputDim() != classes {
			return nil, fmt.Errorf("network emits %d classes, label encoder has %d",
				net.OutputDim(), classes)
		}
		return &mlpPredictor{net: net}, nil

	case kindWideDeep:
		var spec struct {
			Deep networkSpec `json:"deep"`
			Wide networkSpec `json:"wide"`
			Head networkSpec `json:"head"`
		}
		if err := readArtifact(dir, entry.File, &spec); err != nil {
			return nil, err
		}
		deep, err := newNetwork(spec.Deep)
		if err != nil {
			return nil, fmt.Errorf("deep branch: %w", err)
		}
		wide, err := newNetwork(spec.Wide)
		if err != nil {
			return nil, fmt.Errorf("wide branch: %w", err)
		}
		head, err := newNetwork(spec.Head)
		if err != nil {
			return nil, fmt.Errorf("head: %w", err)
		}

		if d := deep.InputDim(); d != -1 && d != features.VectorLen {
			return nil, fmt.Errorf("deep branch expects %d inputs, pipeline produces %d",
				d, features.VectorLen)
		}
		if w := wide.InputDim(); w != -1 && w != features.StatCount {
			return nil, fmt.Errorf("wide branch expects %d inputs, prefix has %d",
				w, features.StatCount)
		}
		if head.OutputDim() != classes {
			return nil, fmt.Errorf("head emits %d classes, label encoder has %d",
				head.OutputDim(), classes)
		}

		deepOut := deep.OutputDim()
		if deepOut == -1 {
			deepOut = features.VectorLen
		}
		wideOut := wide.OutputDim()
		if wideOut == -1 {
			wideOut = features.StatCount
		}
		if head.InputDim() != deepOut+wideOut {
			return nil, fmt.Errorf("head expects %d inputs, branches emit %d",
				head.InputDim(), deepOut+wideOut)
		}
		return &wideDeepPredictor{deep: deep, wide: wide, head: head}, nil

	case kindBoostedTrees:
		var ensemble TreeEnsemble
		if err := readArtifact(dir, entry.File, &ensemble); err != nil {
			return nil, err
		}
		if err := ensemble.validate(); err != nil {
			return nil, err
		}
		if ensemble.Classes != classes {
			return nil, fmt.Errorf("ensemble has %d classes, label encoder has %d",
				ensemble.Classes, classes)
		}
		return &hybridPredictor{extractor: extractor, trees: &ensemble}, nil

	default:
		return nil, fmt.Errorf("unknown artifact kind %q", entry.Kind)
	}
}

// Predictor resolves a variant by its user-facing name.
func (r *Registry) Predictor(name string) (Predictor, error) {
	p, ok := r.predictors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return p, nil
}

// Scaler returns the shared input transform.
func (r *Registry) Scaler() *Scaler { return r.scaler }

// Labels returns the class-to-tool mapping.
func (r *Registry) Labels() *LabelEncoder { return r.labels }

// Dir reports the directory the registry was loaded from.
func (r *Registry) Dir() string { return r.dir }
