package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/minerva-comp/minerva/internal/bench"
	"github.com/minerva-comp/minerva/internal/config"
	"github.com/minerva-comp/minerva/internal/engine"
	"github.com/minerva-comp/minerva/internal/history"
)

// Version identifies the server build; main may override these at
// startup via ldflags.
var (
	Version = "0.1.0"
	Build   = "dev"
)

// Benchmarker runs the compression sweep. *bench.Runner satisfies it;
// tests substitute canned results.
type Benchmarker interface {
	Available(tool bench.Tool) bool
	RunSingle(ctx context.Context, tool bench.Tool, path string) bench.Result
	RunFull(ctx context.Context, path string, recommended bench.Tool) (*bench.Report, error)
}

type Server struct {
	config     *config.Config
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
	engine     *engine.Engine
	bench      Benchmarker
	// history is nil when the run log is disabled.
	history *history.Store
	metrics *Metrics
	limiter *RateLimiter

	requestCount int64
	errorCount   int64
	startTime    time.Time
}

func NewServer(cfg *config.Config, logger *zap.Logger, eng *engine.Engine, b Benchmarker, store *history.Store) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger,
		engine:    eng,
		bench:     b,
		history:   store,
		metrics:   NewMetrics(),
		limiter:   NewRateLimiter(cfg.Server.BenchmarkRPS, cfg.Server.BenchmarkBurst),
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: s.router,
		// A full sweep can hold the response for six tool timeouts,
		// so the write deadline must cover the worst case.
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 6*cfg.Bench.ToolTimeout + time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.observeMiddleware)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/version", s.handleVersion)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/predict", s.handlePredict)
		r.With(RateLimitMiddleware(s.limiter, s.metrics)).Post("/benchmark", s.handleBenchmark)
		r.Get("/download/{name}", s.handleDownload)
		r.Get("/models", s.handleModels)
		r.Get("/tools", s.handleTools)
		r.Get("/history", s.handleHistory)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"uptime":  time.Since(s.startTime).Seconds(),
	}

	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	available := 0
	for _, tool := range bench.Tools() {
		if s.bench.Available(tool) {
			available++
		}
	}

	ready := map[string]interface{}{
		"ready":           true,
		"models":          len(s.engine.Models()),
		"tools_available": available,
		"memory_mb":       getMemoryUsageMB(),
	}

	writeJSON(w, http.StatusOK, ready)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	version := map[string]string{
		"version": Version,
		"build":   Build,
		"go":      runtime.Version(),
	}

	writeJSON(w, http.StatusOK, version)
}

// observeMiddleware counts, times, and logs every request.
func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.requestCount, 1)
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// The route pattern keeps metric cardinality bounded for
		// parameterized paths like /download/{name}.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		if rec.status >= http.StatusInternalServerError {
			atomic.AddInt64(&s.errorCount, 1)
		}
		s.metrics.ObserveRequest(r.Method, path, rec.status, time.Since(start).Seconds())

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) Start() error {
	s.logger.Info("starting server", zap.Int("port", s.config.Server.Port))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func getMemoryUsageMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / 1024 / 1024
}
