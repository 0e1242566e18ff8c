// internal/features/extractor.go
package features

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// Slot order inside the statistics prefix. Models are trained
	// against this exact layout, so it never changes.
	idxFileSize = iota
	idxEntropy
	idxTextAvgLineLen
	idxPDFPages
	idxImageWidth
	idxImageHeight
	idxImageChannels
	idxImageBitDepth
	idxAudioDuration
	idxAudioSampleRate
	idxAudioChannels
	idxAudioBitDepth

	// StatCount is the number of scalar statistics ahead of the histogram.
	StatCount = 12

	// ByteBins is one frequency slot per possible byte value.
	ByteBins = 256

	// VectorLen is the full model input width.
	VectorLen = StatCount + ByteBins
)

// Vector is a file's model input: 12 scalar statistics followed by 256
// normalized byte frequencies. Length is always VectorLen.
type Vector []float64

// Insights is the human-readable companion to a Vector.
type Insights map[string]string

// Extractor turns a file into a Vector plus Insights. Sub-feature
// failures degrade to zero values instead of surfacing as errors.
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract reads the file at path and assembles its feature vector and
// insights. It never returns an error: unreadable inputs produce a
// zero-valued vector.
func (e *Extractor) Extract(path string) (Vector, Insights) {
	ext := NormalizeExt(path)

	size, entropy, dist := e.universalFeatures(path)

	vec := make(Vector, VectorLen)
	vec[idxFileSize] = float64(size)
	vec[idxEntropy] = entropy

	switch ext {
	case "txt", "csv", "json":
		vec[idxTextAvgLineLen] = e.textAvgLineLen(path)
	case "pdf":
		vec[idxPDFPages] = float64(e.pdfPageCount(path))
	case "jpg", "jpeg", "png":
		w, h, channels, depth := e.imageFeatures(path)
		vec[idxImageWidth] = float64(w)
		vec[idxImageHeight] = float64(h)
		vec[idxImageChannels] = float64(channels)
		vec[idxImageBitDepth] = float64(depth)
	case "wav":
		duration, rate, channels, depth := e.audioFeatures(path)
		vec[idxAudioDuration] = duration
		vec[idxAudioSampleRate] = float64(rate)
		vec[idxAudioChannels] = float64(channels)
		vec[idxAudioBitDepth] = float64(depth)
	}

	copy(vec[StatCount:], dist[:])

	insights := Insights{
		"File Type":       strings.ToUpper(ext),
		"File Size (KB)":  fmt.Sprintf("%.2f", float64(size)/1024),
		"Shannon Entropy": fmt.Sprintf("%.4f", entropy),
	}
	if d := vec[idxAudioDuration]; d > 0 {
		insights["Duration (s)"] = fmt.Sprintf("%.2f", d)
	}
	if w := vec[idxImageWidth]; w > 0 {
		insights["Dimensions"] = fmt.Sprintf("%d x %d", int(w), int(vec[idxImageHeight]))
	}
	if p := vec[idxPDFPages]; p > 0 {
		insights["Page Count"] = strconv.Itoa(int(p))
	}

	return vec, insights
}

// StatsPrefix returns the 12 scalar statistics ahead of the histogram.
func (v Vector) StatsPrefix() []float64 {
	return v[:StatCount]
}

// NormalizeExt lowercases the path's extension and strips the dot.
func NormalizeExt(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
