// internal/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/minerva-comp/minerva/internal/features"
	"github.com/minerva-comp/minerva/internal/model"
)

// Engine runs the prediction pipeline: validate, extract, scale,
// dispatch to the chosen model variant, decode the label. The model
// registry is injected once at startup and never mutated afterwards.
type Engine struct {
	registry  *model.Registry
	extractor *features.Extractor
	logger    *zap.Logger
}

func New(registry *model.Registry, extractor *features.Extractor, logger *zap.Logger) *Engine {
	return &Engine{
		registry:  registry,
		extractor: extractor,
		logger:    logger,
	}
}

// Prediction is the pipeline's answer for one file.
type Prediction struct {
	Tool     string            `json:"tool"`
	Model    string            `json:"model"`
	Insights features.Insights `json:"insights"`
	// Seconds is wall-clock from validation start to label decode,
	// excluding any benchmarking.
	Seconds float64 `json:"seconds"`
}

// Predict recommends a compression tool for the file at path using the
// named model variant.
func (e *Engine) Predict(ctx context.Context, path, modelName string) (*Prediction, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := features.NormalizeExt(path)
	size, err := validateInput(path, ext)
	if err != nil {
		return nil, err
	}

	predictor, err := e.registry.Predictor(modelName)
	if err != nil {
		return nil, err
	}

	vec, insights := e.extractor.Extract(path)

	scaled, err := e.registry.Scaler().Transform(vec)
	if err != nil {
		return nil, fmt.Errorf("engine: scale features: %w", err)
	}

	class, err := predictor.PredictClass(scaled)
	if err != nil {
		return nil, fmt.Errorf("engine: %s inference: %w", modelName, err)
	}

	tool, err := e.registry.Labels().Decode(class)
	if err != nil {
		return nil, fmt.Errorf("engine: decode class: %w", err)
	}

	elapsed := time.Since(start)
	e.logger.Info("prediction complete",
		zap.String("path", path),
		zap.String("model", modelName),
		zap.String("tool", tool),
		zap.Int64("size", size),
		zap.Duration("elapsed", elapsed))

	return &Prediction{
		Tool:     tool,
		Model:    modelName,
		Insights: insights,
		Seconds:  elapsed.Seconds(),
	}, nil
}

// Models lists the selectable model variants.
func (e *Engine) Models() []string {
	return model.ModelNames()
}

// Labels exposes the class-to-tool mapping for consumers that need the
// full tool list.
func (e *Engine) Labels() []string {
	return e.registry.Labels().Classes()
}
