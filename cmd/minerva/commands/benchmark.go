// cmd/minerva/commands/benchmark.go
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/minerva-comp/minerva/internal/bench"
	"github.com/minerva-comp/minerva/internal/features"
	"github.com/minerva-comp/minerva/internal/history"
)

// RunBenchmark compresses the --file target with real tools. The
// default path predicts first and then sweeps every tool; --tool
// benchmarks a single tool with no prediction, and --full=false runs
// only the recommended tool.
func RunBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if d, _ := cmd.Flags().GetDuration("timeout"); d > 0 {
		cfg.Bench.ToolTimeout = d
	}

	logger, err := cliLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runner := bench.NewRunner(cfg.Bench.OutputDir, cfg.Bench.ToolTimeout, logger)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	path, _ := cmd.Flags().GetString("file")
	out := cmd.OutOrStdout()
	asJSON := viper.GetBool("json")

	store, err := openHistory(cfg, logger)
	if err != nil {
		logger.Warn("history store unavailable", zap.Error(err))
		store = nil
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	// Explicit tool: no prediction, one run.
	if toolName, _ := cmd.Flags().GetString("tool"); toolName != "" {
		tool, err := bench.ParseTool(toolName)
		if err != nil {
			return err
		}
		res := runner.RunSingle(ctx, tool, path)
		recordBenchmark(ctx, store, logger, path, "", string(tool), []bench.Result{res}, res.Seconds)

		if asJSON {
			return printJSON(out, res)
		}
		printResult(out, res)
		return nil
	}

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	modelName, _ := cmd.Flags().GetString("model")
	pred, err := eng.Predict(ctx, path, modelName)
	if err != nil {
		return err
	}
	recommended, err := bench.ParseTool(pred.Tool)
	if err != nil {
		return err
	}

	if full, _ := cmd.Flags().GetBool("full"); !full {
		res := runner.RunSingle(ctx, recommended, path)
		recordBenchmark(ctx, store, logger, path, pred.Model, string(res.Tool), []bench.Result{res}, pred.Seconds+res.Seconds)

		if asJSON {
			return printJSON(out, map[string]interface{}{
				"prediction": pred,
				"result":     res,
			})
		}
		fmt.Fprintf(out, "Model %s recommends %s\n\n", pred.Model, pred.Tool)
		printResult(out, res)
		return nil
	}

	report, err := runner.RunFull(ctx, path, recommended)
	if err != nil {
		return err
	}
	eff := bench.NewEfficiency(pred.Seconds, report)
	recordBenchmark(ctx, store, logger, path, pred.Model, pred.Tool, report.Results, pred.Seconds+report.Seconds)

	if asJSON {
		return printJSON(out, map[string]interface{}{
			"prediction": pred,
			"report":     report,
			"efficiency": eff,
		})
	}

	fmt.Fprintf(out, "Model %s recommends %s\n\n", pred.Model, pred.Tool)
	fmt.Fprintln(out, report.Summary)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Brute-force sweep: %.2fs\n", eff.BruteForceSeconds)
	fmt.Fprintf(out, "Smart path:        %.2fs (prediction %.3fs + %s %.2fs)\n",
		eff.SmartSeconds, eff.PredictionSeconds, report.Recommended, eff.RecommendedSeconds)
	fmt.Fprintf(out, "Saved:             %.2fs (%.1f%%)\n", eff.SavedSeconds, eff.SavedPercent)

	var persisted []bench.Result
	for _, res := range report.Results {
		if res.Status == bench.StatusOK && res.OutputPath != "" {
			persisted = append(persisted, res)
		}
	}
	if len(persisted) > 0 {
		fmt.Fprintf(out, "\nOutputs:\n")
		for _, res := range persisted {
			fmt.Fprintf(out, "  %-8s%s\n", res.Tool, res.OutputPath)
		}
	}
	return nil
}

func printResult(w io.Writer, res bench.Result) {
	fmt.Fprintf(w, "Tool:   %s\n", res.Tool)
	fmt.Fprintf(w, "Status: %s\n", res.Status)
	fmt.Fprintf(w, "Ratio:  %.2f\n", res.Ratio)
	fmt.Fprintf(w, "Time:   %.2fs\n", res.Seconds)
	if res.OutputPath != "" {
		fmt.Fprintf(w, "Output: %s\n", res.OutputPath)
	}
}

func recordBenchmark(ctx context.Context, store *history.Store, logger *zap.Logger, path, modelName, tool string, results []bench.Result, seconds float64) {
	if store == nil {
		return
	}
	entry := history.Entry{
		Kind:     history.KindBenchmark,
		FileName: filepath.Base(path),
		FileType: features.NormalizeExt(path),
		Model:    modelName,
		Tool:     tool,
		Ratios:   make(map[string]float64, len(results)),
		Seconds:  seconds,
	}
	if info, err := os.Stat(path); err == nil {
		entry.FileSize = info.Size()
	}
	for _, res := range results {
		entry.Ratios[string(res.Tool)] = res.Ratio
	}
	if _, err := store.Record(ctx, entry); err != nil {
		logger.Warn("record history entry", zap.Error(err))
	}
}
