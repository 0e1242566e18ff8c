// internal/model/manifest.go
package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Artifact kinds a manifest may declare.
const (
	kindMLP          = "mlp"
	kindWideDeep     = "wide_deep"
	kindBoostedTrees = "boosted_trees"
)

// ManifestName is the index file every artifact directory must carry.
const ManifestName = "manifest.json"

type Manifest struct {
	Version      int               `json:"version"`
	VectorLength int               `json:"vector_length"`
	Artifacts    ManifestArtifacts `json:"artifacts"`
}

type ManifestArtifacts struct {
	Scaler          string                `json:"scaler"`
	LabelEncoder    string                `json:"label_encoder"`
	HybridExtractor string                `json:"hybrid_extractor"`
	Models          map[string]ModelEntry `json:"models"`
}

type ModelEntry struct {
	File string `json:"file"`
	Kind string `json:"kind"`
}

const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "vector_length", "artifacts"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "vector_length": {"type": "integer", "minimum": 1},
    "artifacts": {
      "type": "object",
      "required": ["scaler", "label_encoder", "hybrid_extractor", "models"],
      "properties": {
        "scaler": {"type": "string", "minLength": 1},
        "label_encoder": {"type": "string", "minLength": 1},
        "hybrid_extractor": {"type": "string", "minLength": 1},
        "models": {
          "type": "object",
          "minProperties": 1,
          "additionalProperties": {
            "type": "object",
            "required": ["file", "kind"],
            "properties": {
              "file": {"type": "string", "minLength": 1},
              "kind": {"type": "string", "enum": ["mlp", "wide_deep", "boosted_trees"]}
            }
          }
        }
      }
    }
  }
}`

// LoadManifest reads and schema-validates the artifact index.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read manifest: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(manifestSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("model: manifest validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return nil, fmt.Errorf("model: manifest invalid: %s", strings.Join(errs, "; "))
	}

	var manifest Manifest
	if err := decodeJSON(data, &manifest); err != nil {
		return nil, fmt.Errorf("model: parse manifest: %w", err)
	}
	return &manifest, nil
}
