// cmd/minerva/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/minerva-comp/minerva/cmd/minerva/commands"
	"github.com/minerva-comp/minerva/internal/api"
	"github.com/minerva-comp/minerva/internal/model"
)

var (
	// Shared configuration
	configFile   string
	logLevel     string
	artifactsDir string
	outputDir    string
	jsonOutput   bool

	// Prediction configuration
	filePath  string
	modelName string

	// Benchmark configuration
	toolName    string
	fullSweep   bool
	toolTimeout time.Duration

	// Server configuration
	servePort int

	// History configuration
	historyLimit int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "minerva",
		Short: "Compression tool recommendation and benchmarking",
		Long: `Minerva inspects a file, extracts content features, and uses pretrained
classifiers to recommend the compression tool likely to achieve the best
ratio. It can also verify a recommendation by running the real tools and
comparing the results.`,
		Version:       api.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&artifactsDir, "artifacts", "", "Model artifacts directory")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "", "Directory for compressed outputs")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of tables")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("artifacts_dir", rootCmd.PersistentFlags().Lookup("artifacts"))
	_ = viper.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	predictCmd := &cobra.Command{
		Use:   "predict",
		Short: "Recommend a compression tool for a file",
		Long: `Extract content features from a file and run the chosen pretrained
classifier to recommend the compression tool expected to achieve the
best ratio. No compressor is executed.`,
		Args: cobra.NoArgs,
		RunE: commands.RunPredict,
	}
	predictCmd.Flags().StringVar(&filePath, "file", "", "File to analyze (required)")
	predictCmd.Flags().StringVar(&modelName, "model", model.ModelBaselineMLP, "Model variant to use")
	_ = predictCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(predictCmd)

	benchmarkCmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Compress a file with real tools and compare ratios",
		Long: `Predict the best compression tool for a file, then verify by invoking
the real compressors and measuring actual ratios and timings. Use
--tool to benchmark one specific tool without predicting, or
--full=false to run only the recommended tool.`,
		Args: cobra.NoArgs,
		RunE: commands.RunBenchmark,
	}
	benchmarkCmd.Flags().StringVar(&filePath, "file", "", "File to compress (required)")
	benchmarkCmd.Flags().StringVar(&modelName, "model", model.ModelBaselineMLP, "Model variant to use")
	benchmarkCmd.Flags().StringVar(&toolName, "tool", "", "Benchmark one specific tool instead of predicting")
	benchmarkCmd.Flags().BoolVar(&fullSweep, "full", true, "Run every tool, not just the recommended one")
	benchmarkCmd.Flags().DurationVar(&toolTimeout, "timeout", 0, "Per-tool timeout (default from config)")
	_ = benchmarkCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(benchmarkCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve the prediction and benchmarking pipeline over HTTP. The server
loads model artifacts once at startup and shuts down gracefully on
SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: commands.RunServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "models",
		Short: "List the selectable model variants",
		Args:  cobra.NoArgs,
		RunE:  commands.RunModels,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "Show compression tool availability",
		Args:  cobra.NoArgs,
		RunE:  commands.RunTools,
	})

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent prediction and benchmark runs",
		Args:  cobra.NoArgs,
		RunE:  commands.RunHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries to list")
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
