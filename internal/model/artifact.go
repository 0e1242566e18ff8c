package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// readArtifact decodes one gzip-compressed JSON artifact into v.
func readArtifact(dir, name string, v interface{}) error {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("model: open artifact %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("model: artifact %s is not gzip: %w", name, err)
	}
	defer func() { _ = gz.Close() }()

	if err := json.NewDecoder(gz).Decode(v); err != nil {
		return fmt.Errorf("model: decode artifact %s: %w", name, err)
	}
	return nil
}

func decodeJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
