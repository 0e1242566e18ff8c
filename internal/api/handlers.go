// internal/api/handlers.go
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minerva-comp/minerva/internal/bench"
	"github.com/minerva-comp/minerva/internal/engine"
	"github.com/minerva-comp/minerva/internal/features"
	"github.com/minerva-comp/minerva/internal/history"
	"github.com/minerva-comp/minerva/internal/model"
)

const uploadFormKey = "file"

// upload is one request's file staged on disk.
type upload struct {
	path string
	name string
	size int64
	dir  string
}

func (u *upload) cleanup() {
	_ = os.RemoveAll(u.dir)
}

// saveUpload stages the multipart file under a temp directory, keeping
// the client's base name so extension dispatch still works.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	// One extra MiB covers multipart framing around a full-size file.
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxUploadBytes+1<<20)

	file, header, err := r.FormFile(uploadFormKey)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(filepath.Clean(header.Filename))
	if name == "." || name == ".." || name == "/" {
		name = "upload"
	}

	dir, err := os.MkdirTemp("", "minerva-upload-*")
	if err != nil {
		return nil, fmt.Errorf("api: stage upload: %w", err)
	}

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("api: stage upload: %w", err)
	}
	size, err := io.Copy(dst, file)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	if size > s.config.Server.MaxUploadBytes {
		_ = os.RemoveAll(dir)
		return nil, &http.MaxBytesError{Limit: s.config.Server.MaxUploadBytes}
	}

	return &upload{path: path, name: name, size: size, dir: dir}, nil
}

func (s *Server) uploadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds the %d byte limit", s.config.Server.MaxUploadBytes))
		return
	}
	writeError(w, http.StatusBadRequest, "invalid upload: a multipart 'file' field is required")
}

// pipelineError maps engine and model failures onto HTTP statuses.
func (s *Server) pipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidInput), errors.Is(err, model.ErrUnknownModel):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		atomic.AddInt64(&s.errorCount, 1)
		s.logger.Error("pipeline failure", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) recordHistory(r *http.Request, entry history.Entry) {
	if s.history == nil {
		return
	}
	if _, err := s.history.Record(r.Context(), entry); err != nil {
		s.logger.Warn("history record failed", zap.Error(err))
	}
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	up, err := s.saveUpload(w, r)
	if err != nil {
		s.uploadError(w, err)
		return
	}
	defer up.cleanup()

	modelName := r.FormValue("model")
	if modelName == "" {
		modelName = model.ModelBaselineMLP
	}

	pred, err := s.engine.Predict(r.Context(), up.path, modelName)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	s.metrics.RecordPrediction(pred.Model, pred.Tool)
	s.recordHistory(r, history.Entry{
		Kind:     history.KindPredict,
		FileName: up.name,
		FileSize: up.size,
		FileType: features.NormalizeExt(up.path),
		Model:    pred.Model,
		Tool:     pred.Tool,
		Seconds:  pred.Seconds,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{"prediction": pred})
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	up, err := s.saveUpload(w, r)
	if err != nil {
		s.uploadError(w, err)
		return
	}
	defer up.cleanup()

	if toolName := r.FormValue("tool"); toolName != "" {
		tool, err := bench.ParseTool(toolName)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.benchmarkSingle(w, r, up, tool, nil)
		return
	}

	fullRun := true
	if v := r.FormValue("full"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'full' flag: expected a boolean")
			return
		}
		fullRun = parsed
	}

	modelName := r.FormValue("model")
	if modelName == "" {
		modelName = model.ModelBaselineMLP
	}
	pred, err := s.engine.Predict(r.Context(), up.path, modelName)
	if err != nil {
		s.pipelineError(w, err)
		return
	}
	s.metrics.RecordPrediction(pred.Model, pred.Tool)

	recommended, err := bench.ParseTool(pred.Tool)
	if err != nil {
		s.pipelineError(w, fmt.Errorf("api: model produced unknown tool %q: %w", pred.Tool, err))
		return
	}

	if !fullRun {
		s.benchmarkSingle(w, r, up, recommended, pred)
		return
	}

	report, err := s.bench.RunFull(r.Context(), up.path, recommended)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	ratios := make(map[string]float64, len(report.Results))
	downloads := make(map[string]string)
	for _, res := range report.Results {
		s.metrics.RecordToolRun(string(res.Tool), string(res.Status))
		ratios[string(res.Tool)] = res.Ratio
		if res.Status == bench.StatusOK && res.OutputPath != "" {
			downloads[string(res.Tool)] = "/api/v1/download/" + filepath.Base(res.OutputPath)
		}
	}

	s.recordHistory(r, history.Entry{
		Kind:     history.KindBenchmark,
		FileName: up.name,
		FileSize: up.size,
		FileType: features.NormalizeExt(up.path),
		Model:    pred.Model,
		Tool:     pred.Tool,
		Ratios:   ratios,
		Seconds:  pred.Seconds + report.Seconds,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prediction": pred,
		"report":     report,
		"efficiency": bench.NewEfficiency(pred.Seconds, report),
		"downloads":  downloads,
	})
}

// benchmarkSingle runs one tool and answers with its result. pred is
// nil when the tool was chosen by the client rather than a model.
func (s *Server) benchmarkSingle(w http.ResponseWriter, r *http.Request, up *upload, tool bench.Tool, pred *engine.Prediction) {
	res := s.bench.RunSingle(r.Context(), tool, up.path)
	s.metrics.RecordToolRun(string(res.Tool), string(res.Status))

	entry := history.Entry{
		Kind:     history.KindBenchmark,
		FileName: up.name,
		FileSize: up.size,
		FileType: features.NormalizeExt(up.path),
		Tool:     string(tool),
		Ratios:   map[string]float64{string(tool): res.Ratio},
		Seconds:  res.Seconds,
	}
	if pred != nil {
		entry.Model = pred.Model
		entry.Seconds += pred.Seconds
	}
	s.recordHistory(r, entry)

	resp := map[string]interface{}{"result": res}
	if pred != nil {
		resp["prediction"] = pred
	}
	if res.Status == bench.StatusOK && res.OutputPath != "" {
		resp["download"] = "/api/v1/download/" + filepath.Base(res.OutputPath)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !validDownloadName(name) {
		writeError(w, http.StatusBadRequest, "invalid artifact name")
		return
	}

	path := filepath.Join(s.config.Bench.OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// validDownloadName admits only the runner's own output names, a uuid
// followed by a known suffix, which also rules out path traversal.
func validDownloadName(name string) bool {
	stem, suffix, found := strings.Cut(name, ".")
	if !found {
		return false
	}
	if _, err := uuid.Parse(stem); err != nil {
		return false
	}
	for _, tool := range bench.Tools() {
		if suffix == tool.OutputSuffix() {
			return true
		}
	}
	return false
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models":  s.engine.Models(),
		"default": model.ModelBaselineMLP,
	})
}

type toolStatus struct {
	Name       string `json:"name"`
	Executable string `json:"executable"`
	Available  bool   `json:"available"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	tools := make([]toolStatus, 0, len(bench.Tools()))
	for _, tool := range bench.Tools() {
		tools = append(tools, toolStatus{
			Name:       string(tool),
			Executable: tool.Executable(),
			Available:  s.bench.Available(tool),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": tools})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is disabled")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid 'limit': expected a positive integer")
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		limit = parsed
	}

	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		atomic.AddInt64(&s.errorCount, 1)
		s.logger.Error("history list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}
