package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minerva-comp/minerva/internal/bench"
	"github.com/minerva-comp/minerva/internal/config"
	"github.com/minerva-comp/minerva/internal/engine"
	"github.com/minerva-comp/minerva/internal/features"
	"github.com/minerva-comp/minerva/internal/history"
	"github.com/minerva-comp/minerva/internal/model"
	"github.com/minerva-comp/minerva/internal/model/modeltest"
)

// stubBench satisfies Benchmarker with canned results.
type stubBench struct {
	availableTools  map[bench.Tool]bool
	singleResult    func(tool bench.Tool) bench.Result
	report          *bench.Report
	fullErr         error
	lastRecommended bench.Tool
}

func (b *stubBench) Available(tool bench.Tool) bool {
	if b.availableTools == nil {
		return true
	}
	return b.availableTools[tool]
}

func (b *stubBench) RunSingle(_ context.Context, tool bench.Tool, _ string) bench.Result {
	if b.singleResult != nil {
		return b.singleResult(tool)
	}
	return bench.Result{Tool: tool, Ratio: 1.0, Status: bench.StatusFailed}
}

func (b *stubBench) RunFull(_ context.Context, _ string, recommended bench.Tool) (*bench.Report, error) {
	b.lastRecommended = recommended
	return b.report, b.fullErr
}

func okResult(tool bench.Tool, ratio float64, outputDir string) bench.Result {
	return bench.Result{
		Tool:           tool,
		Ratio:          ratio,
		Seconds:        0.2,
		CompressedSize: 100,
		OutputPath:     filepath.Join(outputDir, uuid.New().String()+"."+tool.OutputSuffix()),
		Status:         bench.StatusOK,
	}
}

func newTestServer(t *testing.T, b Benchmarker, store *history.Store, mutate func(*config.Config)) *Server {
	t.Helper()

	artifacts := t.TempDir()
	modeltest.WriteArtifacts(t, artifacts, bench.ToolNames())
	registry, err := model.LoadRegistry(artifacts, bench.ToolNames(), zap.NewNop())
	require.NoError(t, err)
	eng := engine.New(registry, features.NewExtractor(zap.NewNop()), zap.NewNop())

	cfg := config.Default()
	cfg.Bench.OutputDir = t.TempDir()
	// Benchmark rate limiting is exercised in its own test.
	cfg.Server.BenchmarkRPS = 1000
	cfg.Server.BenchmarkBurst = 1000
	if mutate != nil {
		mutate(cfg)
	}

	return NewServer(cfg, zap.NewNop(), eng, b, store)
}

// postUpload sends a multipart request; an empty filename omits the
// file part entirely.
func postUpload(t *testing.T, srv *Server, target, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile(uploadFormKey, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, srv *Server, target string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if v != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
	}
	return rec
}

func toolForModel(t *testing.T, name string) string {
	t.Helper()
	names := bench.ToolNames()
	return names[modeltest.ExpectedClass(name, len(names))]
}

func TestPredictEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubBench{}, nil, nil)

	t.Run("default model", func(t *testing.T) {
		rec := postUpload(t, srv, "/api/v1/predict", "doc.txt", []byte("hello minerva"), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Prediction *engine.Prediction `json:"prediction"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Prediction)
		assert.Equal(t, model.ModelBaselineMLP, resp.Prediction.Model)
		assert.Equal(t, toolForModel(t, model.ModelBaselineMLP), resp.Prediction.Tool)
		assert.Equal(t, "TXT", resp.Prediction.Insights["File Type"])
	})

	t.Run("explicit model", func(t *testing.T) {
		rec := postUpload(t, srv, "/api/v1/predict", "doc.txt", []byte("hello minerva"),
			map[string]string{"model": model.ModelWideDeep})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Prediction *engine.Prediction `json:"prediction"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, toolForModel(t, model.ModelWideDeep), resp.Prediction.Tool)
	})

	t.Run("unknown model", func(t *testing.T) {
		rec := postUpload(t, srv, "/api/v1/predict", "doc.txt", []byte("x"),
			map[string]string{"model": "Quantum MLP"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown model")
	})

	t.Run("unsupported file type", func(t *testing.T) {
		rec := postUpload(t, srv, "/api/v1/predict", "tool.exe", []byte("MZ"), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unsupported file type")
	})

	t.Run("missing file part", func(t *testing.T) {
		rec := postUpload(t, srv, "/api/v1/predict", "", nil, map[string]string{"model": model.ModelBaselineMLP})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "file")
	})

	t.Run("upload over the configured cap", func(t *testing.T) {
		small := newTestServer(t, &stubBench{}, nil, func(cfg *config.Config) {
			cfg.Server.MaxUploadBytes = 1024
		})
		rec := postUpload(t, small, "/api/v1/predict", "big.txt", bytes.Repeat([]byte("a"), 5000), nil)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), "exceeds")
	})
}

func TestBenchmarkEndpoint(t *testing.T) {
	outputDir := t.TempDir()
	baselineTool := toolForModel(t, model.ModelBaselineMLP)

	fullResults := make([]bench.Result, 0, len(bench.Tools()))
	for i, tool := range bench.Tools() {
		if tool == bench.ToolFlac {
			fullResults = append(fullResults, bench.Result{Tool: tool, Status: bench.StatusSkipped})
			continue
		}
		fullResults = append(fullResults, okResult(tool, float64(5-i), outputDir))
	}
	report := bench.NewReport(1000, fullResults, bench.Tool(baselineTool))
	report.Seconds = 3.0

	t.Run("full sweep", func(t *testing.T) {
		stub := &stubBench{report: report}
		srv := newTestServer(t, stub, nil, nil)

		rec := postUpload(t, srv, "/api/v1/benchmark", "doc.txt", []byte("hello minerva"), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Prediction *engine.Prediction `json:"prediction"`
			Report     *bench.Report      `json:"report"`
			Efficiency *bench.Efficiency  `json:"efficiency"`
			Downloads  map[string]string  `json:"downloads"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		require.NotNil(t, resp.Prediction)
		assert.Equal(t, baselineTool, resp.Prediction.Tool)
		assert.Equal(t, bench.Tool(baselineTool), stub.lastRecommended)

		require.NotNil(t, resp.Report)
		assert.Len(t, resp.Report.Results, len(bench.Tools()))

		require.NotNil(t, resp.Efficiency)
		assert.InDelta(t, 3.0, resp.Efficiency.BruteForceSeconds, 1e-9)

		assert.Len(t, resp.Downloads, len(bench.Tools())-1, "skipped flac has no artifact")
		for tool, link := range resp.Downloads {
			assert.Contains(t, link, "/api/v1/download/", tool)
		}
	})

	t.Run("single run of the recommendation", func(t *testing.T) {
		stub := &stubBench{
			singleResult: func(tool bench.Tool) bench.Result {
				return okResult(tool, 2.5, outputDir)
			},
		}
		srv := newTestServer(t, stub, nil, nil)

		rec := postUpload(t, srv, "/api/v1/benchmark", "doc.txt", []byte("hello minerva"),
			map[string]string{"full": "false"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Prediction *engine.Prediction `json:"prediction"`
			Result     *bench.Result      `json:"result"`
			Report     *bench.Report      `json:"report"`
			Download   string             `json:"download"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		require.NotNil(t, resp.Result)
		assert.Equal(t, baselineTool, string(resp.Result.Tool))
		assert.NotNil(t, resp.Prediction)
		assert.Nil(t, resp.Report, "single runs carry no sweep report")
		assert.Contains(t, resp.Download, "/api/v1/download/")
	})

	t.Run("explicit tool skips prediction", func(t *testing.T) {
		stub := &stubBench{
			singleResult: func(tool bench.Tool) bench.Result {
				return okResult(tool, 2.5, outputDir)
			},
		}
		srv := newTestServer(t, stub, nil, nil)

		rec := postUpload(t, srv, "/api/v1/benchmark", "doc.txt", []byte("hello minerva"),
			map[string]string{"tool": "zip"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Prediction *engine.Prediction `json:"prediction"`
			Result     *bench.Result      `json:"result"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "zip", string(resp.Result.Tool))
		assert.Nil(t, resp.Prediction)
	})

	t.Run("invalid tool", func(t *testing.T) {
		srv := newTestServer(t, &stubBench{}, nil, nil)
		rec := postUpload(t, srv, "/api/v1/benchmark", "doc.txt", []byte("x"),
			map[string]string{"tool": "zstd"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "zstd")
	})

	t.Run("invalid full flag", func(t *testing.T) {
		srv := newTestServer(t, &stubBench{}, nil, nil)
		rec := postUpload(t, srv, "/api/v1/benchmark", "doc.txt", []byte("x"),
			map[string]string{"full": "sometimes"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rate limited", func(t *testing.T) {
		stub := &stubBench{report: report}
		srv := newTestServer(t, stub, nil, func(cfg *config.Config) {
			cfg.Server.BenchmarkRPS = 1
			cfg.Server.BenchmarkBurst = 2
		})

		for i := 0; i < 2; i++ {
			rec := postUpload(t, srv, "/api/v1/benchmark", "doc.txt", []byte("hello"), nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		}
		rec := postUpload(t, srv, "/api/v1/benchmark", "doc.txt", []byte("hello"), nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

		t.Run("predict stays open", func(t *testing.T) {
			rec := postUpload(t, srv, "/api/v1/predict", "doc.txt", []byte("hello"), nil)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	})
}

func TestDownloadEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubBench{}, nil, nil)

	name := uuid.New().String() + ".gz"
	path := filepath.Join(srv.config.Bench.OutputDir, name)
	require.NoError(t, os.WriteFile(path, []byte("compressed payload"), 0600))

	t.Run("serves a persisted artifact", func(t *testing.T) {
		rec := getJSON(t, srv, "/api/v1/download/"+name, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "compressed payload", rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Disposition"), name)
	})

	t.Run("rejects names outside the output format", func(t *testing.T) {
		for _, bad := range []string{
			"notauuid.gz",
			uuid.New().String(),          // no suffix
			uuid.New().String() + ".pdf", // not a tool suffix
		} {
			rec := getJSON(t, srv, "/api/v1/download/"+bad, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
		}
	})

	t.Run("missing artifact", func(t *testing.T) {
		rec := getJSON(t, srv, "/api/v1/download/"+uuid.New().String()+".7z", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestValidDownloadName(t *testing.T) {
	assert.True(t, validDownloadName(uuid.New().String()+".bz2"))

	for _, bad := range []string{
		"",
		"manifest.json",
		"../" + uuid.New().String() + ".gz",
		uuid.New().String() + "/.gz",
		uuid.New().String() + ".gz.7z",
	} {
		assert.False(t, validDownloadName(bad), bad)
	}
}

func TestListingEndpoints(t *testing.T) {
	stub := &stubBench{availableTools: map[bench.Tool]bool{
		bench.ToolGzip:  true,
		bench.ToolBzip2: true,
	}}
	srv := newTestServer(t, stub, nil, nil)

	t.Run("models", func(t *testing.T) {
		var resp struct {
			Models  []string `json:"models"`
			Default string   `json:"default"`
		}
		rec := getJSON(t, srv, "/api/v1/models", &resp)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, model.ModelNames(), resp.Models)
		assert.Equal(t, model.ModelBaselineMLP, resp.Default)
	})

	t.Run("tools", func(t *testing.T) {
		var resp struct {
			Tools []toolStatus `json:"tools"`
		}
		rec := getJSON(t, srv, "/api/v1/tools", &resp)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, resp.Tools, len(bench.Tools()))

		byName := make(map[string]toolStatus)
		for _, ts := range resp.Tools {
			byName[ts.Name] = ts
		}
		assert.True(t, byName["gzip"].Available)
		assert.False(t, byName["winrar"].Available)
		assert.Equal(t, "rar", byName["winrar"].Executable)
	})

	t.Run("health", func(t *testing.T) {
		var resp map[string]interface{}
		rec := getJSON(t, srv, "/health", &resp)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", resp["status"])
	})

	t.Run("ready", func(t *testing.T) {
		var resp struct {
			Ready          bool `json:"ready"`
			Models         int  `json:"models"`
			ToolsAvailable int  `json:"tools_available"`
		}
		rec := getJSON(t, srv, "/ready", &resp)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Ready)
		assert.Equal(t, len(model.ModelNames()), resp.Models)
		assert.Equal(t, 2, resp.ToolsAvailable)
	})

	t.Run("version", func(t *testing.T) {
		var resp map[string]string
		rec := getJSON(t, srv, "/version", &resp)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, Version, resp["version"])
		assert.NotEmpty(t, resp["go"])
	})

	t.Run("metrics exposition", func(t *testing.T) {
		// The health probe above has already been observed.
		rec := getJSON(t, srv, "/metrics", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "minerva_requests_total")
	})
}

func TestHistoryEndpoint(t *testing.T) {
	t.Run("disabled store", func(t *testing.T) {
		srv := newTestServer(t, &stubBench{}, nil, nil)
		rec := getJSON(t, srv, "/api/v1/history", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("records and lists runs", func(t *testing.T) {
		store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), zap.NewNop())
		require.NoError(t, err)
		defer store.Close()

		srv := newTestServer(t, &stubBench{}, store, nil)
		rec := postUpload(t, srv, "/api/v1/predict", "doc.txt", []byte("hello minerva"), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			History []history.Entry `json:"history"`
		}
		listRec := getJSON(t, srv, "/api/v1/history", &resp)
		require.Equal(t, http.StatusOK, listRec.Code)
		require.Len(t, resp.History, 1)
		assert.Equal(t, history.KindPredict, resp.History[0].Kind)
		assert.Equal(t, "doc.txt", resp.History[0].FileName)
		assert.Equal(t, "txt", resp.History[0].FileType)
	})

	t.Run("invalid limit", func(t *testing.T) {
		store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), zap.NewNop())
		require.NoError(t, err)
		defer store.Close()

		srv := newTestServer(t, &stubBench{}, store, nil)
		rec := getJSON(t, srv, "/api/v1/history?limit=minus-three", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
