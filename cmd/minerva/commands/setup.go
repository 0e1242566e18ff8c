// cmd/minerva/commands/setup.go
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/minerva-comp/minerva/internal/bench"
	"github.com/minerva-comp/minerva/internal/config"
	"github.com/minerva-comp/minerva/internal/engine"
	"github.com/minerva-comp/minerva/internal/features"
	"github.com/minerva-comp/minerva/internal/history"
	"github.com/minerva-comp/minerva/internal/model"
)

// loadConfig resolves the effective configuration: file, then
// MINERVA_* environment, then any bound command-line flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("log_level"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := viper.GetString("artifacts_dir"); v != "" {
		cfg.Artifacts.Dir = v
	}
	if v := viper.GetString("output_dir"); v != "" {
		cfg.Bench.OutputDir = v
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("commands: parse log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("commands: build logger: %w", err)
	}
	return logger, nil
}

// cliLogger keeps one-shot commands quiet unless the operator raises
// the level explicitly with --log-level.
func cliLogger() (*zap.Logger, error) {
	level := "warn"
	if v := viper.GetString("log_level"); v != "" {
		level = v
	}
	return newLogger(level)
}

// buildEngine loads the model artifacts and wires the prediction
// pipeline around them.
func buildEngine(cfg *config.Config, logger *zap.Logger) (*engine.Engine, error) {
	registry, err := model.LoadRegistry(cfg.Artifacts.Dir, bench.ToolNames(), logger)
	if err != nil {
		return nil, fmt.Errorf("load model artifacts from %s: %w", cfg.Artifacts.Dir, err)
	}
	return engine.New(registry, features.NewExtractor(logger), logger), nil
}

// openHistory opens the run store, or returns nil when recording is
// disabled. Callers must Close a non-nil store.
func openHistory(cfg *config.Config, logger *zap.Logger) (*history.Store, error) {
	if cfg.History.Disabled {
		return nil, nil
	}
	return history.Open(cfg.History.Path, logger)
}

// signalContext cancels the returned context on SIGINT or SIGTERM so
// in-flight tool subprocesses are killed instead of orphaned.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	return ctx, cancel
}
