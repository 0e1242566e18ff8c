// internal/bench/runner.go
package bench

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minerva-comp/minerva/internal/features"
)

// Status classifies how a tool invocation concluded. The 1.0 ratio
// sentinel alone cannot distinguish a missing binary from a tool that
// ran and stored its input; Status can.
type Status string

const (
	// StatusOK means the tool ran and its output was persisted.
	StatusOK Status = "ok"
	// StatusUnavailable means the executable was not on the path.
	StatusUnavailable Status = "unavailable"
	// StatusFailed means the tool started but exited non-zero, timed
	// out, or produced no output.
	StatusFailed Status = "failed"
	// StatusSkipped means the tool was never invoked (zero-byte input,
	// or the audio codec on a non-wav file).
	StatusSkipped Status = "skipped"
)

// Result is one tool's outcome for one input file.
type Result struct {
	Tool  Tool    `json:"tool"`
	Ratio float64 `json:"ratio"`
	// Seconds is wall-clock for this invocation only.
	Seconds        float64 `json:"seconds"`
	CompressedSize int64   `json:"compressed_size,omitempty"`
	OutputPath     string  `json:"output_path,omitempty"`
	Status         Status  `json:"status"`
}

// Runner invokes external compressors under a uniform protocol: copy
// the input into an ephemeral working directory, run the tool with a
// hard timeout, measure the output, and persist it under a
// per-request name so concurrent callers never collide.
type Runner struct {
	outputDir string
	timeout   time.Duration
	logger    *zap.Logger

	// lookPath is swapped in tests to fake tool availability.
	lookPath func(string) (string, error)
}

func NewRunner(outputDir string, timeout time.Duration, logger *zap.Logger) *Runner {
	return &Runner{
		outputDir: outputDir,
		timeout:   timeout,
		logger:    logger,
		lookPath:  exec.LookPath,
	}
}

// Available reports whether the tool's executable is on the path.
func (r *Runner) Available(tool Tool) bool {
	_, err := r.lookPath(tool.Executable())
	return err == nil
}

// RunSingle compresses the file at path with one tool. It never
// returns an error: every failure mode degrades to a ratio-1.0 result
// with a Status explaining what happened.
func (r *Runner) RunSingle(ctx context.Context, tool Tool, path string) Result {
	start := time.Now()
	result := Result{Tool: tool, Ratio: 1.0}

	info, err := os.Stat(path)
	if err != nil {
		r.logger.Warn("benchmark input unreadable",
			zap.String("tool", string(tool)), zap.String("path", path), zap.Error(err))
		result.Status = StatusFailed
		return result
	}
	originalSize := info.Size()
	if originalSize == 0 {
		result.Status = StatusSkipped
		return result
	}

	execPath, err := r.lookPath(tool.Executable())
	if err != nil {
		r.logger.Debug("tool unavailable",
			zap.String("tool", string(tool)), zap.String("executable", tool.Executable()))
		result.Status = StatusUnavailable
		return result
	}

	fail := func(msg string, err error) Result {
		r.logger.Debug("tool run failed",
			zap.String("tool", string(tool)), zap.String("stage", msg), zap.Error(err))
		result.Status = StatusFailed
		result.Seconds = time.Since(start).Seconds()
		return result
	}

	tempDir, err := os.MkdirTemp("", "minerva-bench-*")
	if err != nil {
		return fail("tempdir", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	baseName := filepath.Base(path)
	tempInput := filepath.Join(tempDir, baseName)
	if err := copyFile(path, tempInput); err != nil {
		return fail("stage input", err)
	}

	args, tempOutput := buildCommand(tool, execPath, tempDir, baseName, tempInput)

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var output bytes.Buffer
	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.Dir = tempDir
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		r.logger.Debug("tool exited abnormally",
			zap.String("tool", string(tool)),
			zap.Error(err),
			zap.String("output", tail(output.String(), 512)))
		result.Status = StatusFailed
		result.Seconds = time.Since(start).Seconds()
		return result
	}

	outInfo, err := os.Stat(tempOutput)
	if err != nil {
		return fail("missing output", err)
	}
	compressedSize := outInfo.Size()
	if compressedSize > 0 {
		result.Ratio = float64(originalSize) / float64(compressedSize)
	}

	if err := os.MkdirAll(r.outputDir, 0750); err != nil {
		return fail("output dir", err)
	}
	finalPath := filepath.Join(r.outputDir, uuid.New().String()+"."+tool.OutputSuffix())
	if err := copyFile(tempOutput, finalPath); err != nil {
		return fail("persist output", err)
	}

	result.Status = StatusOK
	result.CompressedSize = compressedSize
	result.OutputPath = finalPath
	result.Seconds = time.Since(start).Seconds()

	r.logger.Info("tool run complete",
		zap.String("tool", string(tool)),
		zap.Float64("ratio", result.Ratio),
		zap.Int64("compressed_size", compressedSize),
		zap.Float64("seconds", result.Seconds))
	return result
}

// RunFull benchmarks every tool sequentially against the file at path.
// The sweep's wall-clock total is the brute-force baseline that the
// efficiency numbers are measured against.
func (r *Runner) RunFull(ctx context.Context, path string, recommended Tool) (*Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("bench: stat input: %w", err)
	}
	originalSize := info.Size()
	isWAV := features.NormalizeExt(path) == "wav"

	start := time.Now()
	results := make([]Result, 0, len(Tools()))
	for _, tool := range Tools() {
		if tool == ToolFlac && !isWAV {
			// The audio codec cannot process arbitrary formats.
			results = append(results, Result{Tool: tool, Ratio: 0.0, Status: StatusSkipped})
			continue
		}
		results = append(results, r.RunSingle(ctx, tool, path))
	}
	elapsed := time.Since(start)

	report := NewReport(originalSize, results, recommended)
	report.Seconds = elapsed.Seconds()

	r.logger.Info("full benchmark complete",
		zap.String("path", path),
		zap.String("recommended", string(recommended)),
		zap.Duration("elapsed", elapsed))
	return report, nil
}

// buildCommand returns the argv and expected output path for one tool,
// reproducing each CLI's protocol exactly. Archive tools address the
// staged copy by base name and run from the working directory; the
// stream compressors rewrite the staged copy in place.
func buildCommand(tool Tool, execPath, tempDir, baseName, tempInput string) ([]string, string) {
	switch tool {
	case Tool7zip:
		out := filepath.Join(tempDir, "output.7z")
		return []string{execPath, "a", "-y", out, baseName}, out
	case ToolWinrar:
		out := filepath.Join(tempDir, "output.rar")
		return []string{execPath, "a", "-m5", "-o+", out, baseName}, out
	case ToolZip:
		out := filepath.Join(tempDir, "output.zip")
		return []string{execPath, "-9", "-j", out, baseName}, out
	case ToolFlac:
		out := filepath.Join(tempDir, "output.flac")
		return []string{execPath, "-8", "-f", "-o", out, baseName}, out
	case ToolGzip:
		return []string{execPath, "-9", tempInput}, tempInput + ".gz"
	case ToolBzip2:
		return []string{execPath, "-9", tempInput}, tempInput + ".bz2"
	}
	return nil, ""
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
