// cmd/minerva/commands/serve.go
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minerva-comp/minerva/internal/api"
	"github.com/minerva-comp/minerva/internal/bench"
)

// RunServe starts the HTTP API server and blocks until SIGINT or
// SIGTERM triggers a graceful shutdown.
func RunServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	runner := bench.NewRunner(cfg.Bench.OutputDir, cfg.Bench.ToolTimeout, logger)
	for _, tool := range bench.Tools() {
		if !runner.Available(tool) {
			logger.Warn("compression tool not on PATH",
				zap.String("tool", string(tool)),
				zap.String("executable", tool.Executable()))
		}
	}

	store, err := openHistory(cfg, logger)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	server := api.NewServer(cfg, logger, eng, runner, store)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("server ready",
		zap.Int("port", cfg.Server.Port),
		zap.String("artifacts", cfg.Artifacts.Dir),
		zap.Int("models", len(eng.Models())))

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
