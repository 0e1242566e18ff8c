package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minerva-comp/minerva/internal/engine"
	"github.com/minerva-comp/minerva/internal/features"
	"github.com/minerva-comp/minerva/internal/model"
	"github.com/minerva-comp/minerva/internal/model/modeltest"
)

var benchTools = []string{"7zip", "zip", "winrar", "gzip", "bzip2", "flac"}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	dir := t.TempDir()
	modeltest.WriteArtifacts(t, dir, benchTools)
	reg, err := model.LoadRegistry(dir, benchTools, zap.NewNop())
	require.NoError(t, err)

	return engine.New(reg, features.NewExtractor(zap.NewNop()), zap.NewNop())
}

func writeInput(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// sparseInput creates a file of the given size without writing data.
func sparseInput(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

func TestPredict_Validation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	t.Run("disallowed extension is invalid input", func(t *testing.T) {
		path := writeInput(t, "payload.exe", []byte("MZ..."))

		_, err := e.Predict(ctx, path, model.ModelBaselineMLP)
		require.Error(t, err)
		assert.ErrorIs(t, err, engine.ErrInvalidInput)

		var typeErr engine.UnsupportedTypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, "exe", typeErr.Ext)
	})

	t.Run("oversize file is invalid input", func(t *testing.T) {
		path := sparseInput(t, "big.txt", engine.MaxFileBytes+1)

		_, err := e.Predict(ctx, path, model.ModelBaselineMLP)
		require.Error(t, err)
		assert.ErrorIs(t, err, engine.ErrInvalidInput)

		var sizeErr engine.FileTooLargeError
		require.ErrorAs(t, err, &sizeErr)
		assert.Equal(t, int64(engine.MaxFileBytes+1), sizeErr.Size)
	})

	t.Run("exactly at the ceiling is accepted", func(t *testing.T) {
		path := sparseInput(t, "edge.txt", engine.MaxFileBytes)

		p, err := e.Predict(ctx, path, model.ModelBaselineMLP)
		require.NoError(t, err)
		assert.Equal(t, "51200.00", p.Insights["File Size (KB)"])
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := e.Predict(ctx, filepath.Join(t.TempDir(), "gone.txt"), model.ModelBaselineMLP)
		assert.Error(t, err)
	})

	t.Run("unknown model errors before extraction", func(t *testing.T) {
		path := writeInput(t, "ok.txt", []byte("hello"))
		_, err := e.Predict(ctx, path, "Quantum MLP")
		assert.ErrorIs(t, err, model.ErrUnknownModel)
	})
}

func TestPredict_Variants(t *testing.T) {
	e := newTestEngine(t)
	path := writeInput(t, "sample.txt", []byte("the quick brown fox\njumps over the lazy dog\n"))

	for _, name := range model.ModelNames() {
		t.Run(name, func(t *testing.T) {
			p, err := e.Predict(context.Background(), path, name)
			require.NoError(t, err)

			want := benchTools[modeltest.ExpectedClass(name, len(benchTools))]
			assert.Equal(t, want, p.Tool)
			assert.Equal(t, name, p.Model)
			assert.Equal(t, "TXT", p.Insights["File Type"])
			assert.GreaterOrEqual(t, p.Seconds, 0.0)
			assert.Less(t, p.Seconds, 10.0)
		})
	}
}

func TestPredict_CancelledContext(t *testing.T) {
	e := newTestEngine(t)
	path := writeInput(t, "ok.txt", []byte("hello"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Predict(ctx, path, model.ModelBaselineMLP)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineListings(t *testing.T) {
	e := newTestEngine(t)

	assert.Equal(t, model.ModelNames(), e.Models())
	assert.ElementsMatch(t, benchTools, e.Labels())
	assert.Contains(t, engine.AllowedExtensions(), "wav")
	assert.Len(t, engine.AllowedExtensions(), 8)
}
