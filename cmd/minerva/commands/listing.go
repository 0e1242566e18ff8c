// cmd/minerva/commands/listing.go
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/minerva-comp/minerva/internal/bench"
	"github.com/minerva-comp/minerva/internal/history"
	"github.com/minerva-comp/minerva/internal/model"
)

// RunModels lists the selectable model variants.
func RunModels(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if viper.GetBool("json") {
		return printJSON(out, map[string]interface{}{
			"models":  model.ModelNames(),
			"default": model.ModelBaselineMLP,
		})
	}

	fmt.Fprintln(out, "Available models (* = default):")
	for _, name := range model.ModelNames() {
		marker := " "
		if name == model.ModelBaselineMLP {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %s\n", marker, name)
	}
	return nil
}

// RunTools reports which compression executables are on the PATH.
func RunTools(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := cliLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runner := bench.NewRunner(cfg.Bench.OutputDir, cfg.Bench.ToolTimeout, logger)
	out := cmd.OutOrStdout()

	if viper.GetBool("json") {
		type toolStatus struct {
			Name       string `json:"name"`
			Executable string `json:"executable"`
			Available  bool   `json:"available"`
		}
		statuses := make([]toolStatus, 0, len(bench.Tools()))
		for _, tool := range bench.Tools() {
			statuses = append(statuses, toolStatus{
				Name:       string(tool),
				Executable: tool.Executable(),
				Available:  runner.Available(tool),
			})
		}
		return printJSON(out, statuses)
	}

	fmt.Fprintf(out, "%-8s%-12s%s\n", "Tool", "Executable", "Available")
	for _, tool := range bench.Tools() {
		avail := "no"
		if runner.Available(tool) {
			avail = "yes"
		}
		fmt.Fprintf(out, "%-8s%-12s%s\n", string(tool), tool.Executable(), avail)
	}
	return nil
}

// RunHistory lists recent prediction and benchmark runs.
func RunHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Disabled {
		return fmt.Errorf("history recording is disabled")
	}

	logger, err := cliLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := history.Open(cfg.History.Path, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("json") {
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No recorded runs.")
		return nil
	}

	fmt.Fprintf(out, "%-18s%-11s%-24s%-14s%-8s%s\n", "When", "Kind", "File", "Model", "Tool", "Seconds")
	for _, entry := range entries {
		fmt.Fprintf(out, "%-18s%-11s%-24s%-14s%-8s%.2f\n",
			entry.CreatedAt.Local().Format("2006-01-02 15:04"),
			entry.Kind,
			entry.FileName,
			entry.Model,
			entry.Tool,
			entry.Seconds)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
