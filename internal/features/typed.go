package features

import (
	"bufio"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-audio/wav"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"
)

// maxLineToken accommodates single-line files up to the upload ceiling.
const maxLineToken = 64 << 20

// textAvgLineLen returns the mean trimmed line length in runes, 0 on
// any failure or for an empty file.
func (e *Extractor) textAvgLineLen(path string) float64 {
	f, err := os.Open(path)
	if err != nil {
		e.logger.Debug("text features unavailable", zap.String("path", path), zap.Error(err))
		return 0
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineToken)

	var lines, total int
	for scanner.Scan() {
		lines++
		total += utf8.RuneCountInString(strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil || lines == 0 {
		return 0
	}
	return float64(total) / float64(lines)
}

// imageFeatures decodes only the image header. Bit depth is reported as
// the constant 8 the models were trained with.
func (e *Extractor) imageFeatures(path string) (width, height, channels, bitDepth int) {
	f, err := os.Open(path)
	if err != nil {
		e.logger.Debug("image features unavailable", zap.String("path", path), zap.Error(err))
		return 0, 0, 0, 0
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		e.logger.Debug("image decode failed", zap.String("path", path), zap.Error(err))
		return 0, 0, 0, 0
	}
	return cfg.Width, cfg.Height, channelCount(cfg.ColorModel), 8
}

func channelCount(m color.Model) int {
	switch m {
	case color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model:
		return 1
	case color.YCbCrModel:
		return 3
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model, color.CMYKModel:
		return 4
	}
	if _, ok := m.(color.Palette); ok {
		return 1
	}
	return 3
}

var pdfConfigOnce sync.Once

// pdfPageCount returns the document's page count, 0 on any failure.
func (e *Extractor) pdfPageCount(path string) int {
	pdfConfigOnce.Do(api.DisableConfigDir)

	count, err := api.PageCountFile(path)
	if err != nil {
		e.logger.Debug("pdf features unavailable", zap.String("path", path), zap.Error(err))
		return 0
	}
	return count
}

// audioFeatures reads the WAV header: duration in seconds, sample rate,
// channel count and bits per sample. All zero on any failure.
func (e *Extractor) audioFeatures(path string) (duration float64, sampleRate, channels, bitDepth int) {
	f, err := os.Open(path)
	if err != nil {
		e.logger.Debug("audio features unavailable", zap.String("path", path), zap.Error(err))
		return 0, 0, 0, 0
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		e.logger.Debug("audio decode failed", zap.String("path", path))
		return 0, 0, 0, 0
	}
	d, err := decoder.Duration()
	if err != nil {
		e.logger.Debug("audio duration unavailable", zap.String("path", path), zap.Error(err))
		return 0, 0, 0, 0
	}
	return d.Seconds(), int(decoder.SampleRate), int(decoder.NumChans), int(decoder.BitDepth)
}
