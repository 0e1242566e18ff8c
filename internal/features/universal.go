package features

import (
	"io"
	"math"
	"os"

	"go.uber.org/zap"
)

// readChunkSize bounds per-read memory during the histogram pass.
const readChunkSize = 1 << 20

// universalFeatures streams the file once and returns its size, Shannon
// entropy and normalized byte distribution. Any failure, including a
// short read partway through, degrades to all zeros.
func (e *Extractor) universalFeatures(path string) (int64, float64, [ByteBins]float64) {
	var dist [ByteBins]float64

	info, err := os.Stat(path)
	if err != nil {
		e.logger.Debug("stat failed, zeroing universal features",
			zap.String("path", path), zap.Error(err))
		return 0, 0, dist
	}
	size := info.Size()
	if size == 0 {
		return 0, 0, dist
	}

	f, err := os.Open(path)
	if err != nil {
		e.logger.Debug("open failed, zeroing universal features",
			zap.String("path", path), zap.Error(err))
		return 0, 0, dist
	}
	defer func() { _ = f.Close() }()

	var counts [ByteBins]int64
	var total int64
	buf := make([]byte, readChunkSize)
	for {
		n, err := f.Read(buf)
		for _, b := range buf[:n] {
			counts[b]++
		}
		total += int64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			e.logger.Debug("read failed, zeroing universal features",
				zap.String("path", path), zap.Error(err))
			return 0, 0, [ByteBins]float64{}
		}
	}

	// The file may have changed size between Stat and the read loop;
	// the bytes actually seen are the ground truth.
	if total == 0 {
		return 0, 0, dist
	}

	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	for i, c := range counts {
		dist[i] = float64(c) / float64(total)
	}

	return total, entropy, dist
}
