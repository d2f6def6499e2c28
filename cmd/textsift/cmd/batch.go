package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/textsift/textsift/internal/batch"
	"github.com/textsift/textsift/internal/runner"
)

var batchCmd = &cobra.Command{
	Use:   "batch <path> [path...]",
	Short: "Process every document under the given paths",
	Long: `Discover documents under files or directories and process each one in
its own session. Failures on individual files are reported in the summary
without stopping the batch.

Examples:
  textsift batch ./scans
  textsift batch ./scans --recursive --pattern 'invoice_*.pdf' --workers 4`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		eng, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = eng.Close() }()

		run, err := runner.NewBuilder().
			WithEngine(eng).
			WithLanguages(cfg.Languages...).
			WithDedupThreshold(cfg.Dedup.IoUThreshold).
			WithSessionBase(cfg.OutputDir).
			WithExportFormats(cfg.Run.Formats...).
			WithVisualization(cfg.Run.Visualize).
			Build()
		if err != nil {
			return err
		}

		recursive, _ := cmd.Flags().GetBool("recursive")
		pattern, _ := cmd.Flags().GetString("pattern")
		workers, _ := cmd.Flags().GetInt("workers")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := batch.Process(ctx, run, args, batch.Config{
			Recursive: recursive,
			Pattern:   pattern,
			Workers:   workers,
		})
		if err != nil {
			return err
		}

		result.WriteSummary(cmd.OutOrStdout())
		if failed := result.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d of %d files failed", len(failed), len(result.Files))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	batchCmd.Flags().String("pattern", "", "glob applied to file base names")
	batchCmd.Flags().Int("workers", 2, "concurrent files")
}
