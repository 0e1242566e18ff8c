// cmd/minerva/commands/predict.go
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/minerva-comp/minerva/internal/engine"
	"github.com/minerva-comp/minerva/internal/features"
	"github.com/minerva-comp/minerva/internal/history"
)

// RunPredict recommends a compression tool for the --file target
// without running any compressor.
func RunPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := cliLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	path, _ := cmd.Flags().GetString("file")
	modelName, _ := cmd.Flags().GetString("model")

	pred, err := eng.Predict(ctx, path, modelName)
	if err != nil {
		return err
	}

	if store, err := openHistory(cfg, logger); err != nil {
		logger.Warn("history store unavailable", zap.Error(err))
	} else if store != nil {
		recordPrediction(ctx, store, logger, path, pred)
		_ = store.Close()
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("json") {
		return printJSON(out, pred)
	}

	fmt.Fprintf(out, "File:             %s\n", path)
	fmt.Fprintf(out, "Model:            %s\n", pred.Model)
	fmt.Fprintf(out, "Recommended tool: %s\n\n", pred.Tool)
	for _, key := range sortedKeys(pred.Insights) {
		fmt.Fprintf(out, "%-18s%s\n", key, pred.Insights[key])
	}
	fmt.Fprintf(out, "\nPrediction time: %.3fs\n", pred.Seconds)
	return nil
}

func recordPrediction(ctx context.Context, store *history.Store, logger *zap.Logger, path string, pred *engine.Prediction) {
	entry := history.Entry{
		Kind:     history.KindPredict,
		FileName: filepath.Base(path),
		FileType: features.NormalizeExt(path),
		Model:    pred.Model,
		Tool:     pred.Tool,
		Seconds:  pred.Seconds,
	}
	if info, err := os.Stat(path); err == nil {
		entry.FileSize = info.Size()
	}
	if _, err := store.Record(ctx, entry); err != nil {
		logger.Warn("record history entry", zap.Error(err))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
