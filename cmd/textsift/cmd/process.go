package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/textsift/textsift/internal/export"
	"github.com/textsift/textsift/internal/preprocess"
	"github.com/textsift/textsift/internal/rasterize"
	"github.com/textsift/textsift/internal/runner"
)

var processCmd = &cobra.Command{
	Use:   "process <document> [document...]",
	Short: "Run documents through recognition and write session artifacts",
	Long: `Process one or more documents (images or PDFs). Each document gets its
own timestamped session directory containing the exported text report,
structured dump, and optional visualizations.

Examples:
  textsift process scan.pdf
  textsift process page.png --languages en,ar --threshold 0.7
  textsift process scan.pdf --format text,json,csv --visualize
  textsift process scan.pdf --search invoice`,
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

		variants, err := retryVariants(cmd)
		if err != nil {
			return err
		}

		b := runner.NewBuilder().
			WithEngine(eng).
			WithLanguages(cfg.Languages...).
			WithDedupThreshold(cfg.Dedup.IoUThreshold).
			WithSessionBase(cfg.OutputDir).
			WithExportFormats(cfg.Run.Formats...).
			WithVisualization(cfg.Run.Visualize).
			WithWorkers(cfg.Run.Workers)
		if dpi, _ := cmd.Flags().GetInt("dpi"); dpi > 0 {
			b = b.WithDPI(dpi)
		}
		if cfg.Run.MinDetections > 0 {
			b = b.WithPreprocessRetry(cfg.Run.MinDetections, variants...)
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			b = b.WithProgress(func(ev runner.PageEvent) {
				fmt.Fprintf(cmd.ErrOrStderr(), "page %d/%d: %d detections\n",
					ev.Page, ev.Total, ev.Detections)
			})
		}
		run, err := b.Build()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		term, _ := cmd.Flags().GetString("search")
		caseSensitive, _ := cmd.Flags().GetBool("case-sensitive")

		for _, path := range args {
			report, err := run.ProcessDocument(ctx, path)
			if err != nil {
				return fmt.Errorf("process %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d detections -> %s\n",
				path, report.Stats.PageCount, report.Stats.TotalDetections,
				report.Session.Path)
			if len(report.ZeroDetectionPages) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "pages without text: %v\n", report.ZeroDetectionPages)
			}

			if term != "" {
				matches := report.Run.Search(term, caseSensitive)
				if err := export.WriteMatches(cmd.OutOrStdout(), matches); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

// retryVariants parses the --retry flag into preprocessing variants.
func retryVariants(cmd *cobra.Command) ([]preprocess.Variant, error) {
	names, _ := cmd.Flags().GetStringSlice("retry")
	if len(names) == 0 {
		return preprocess.Variants(), nil
	}
	variants := make([]preprocess.Variant, 0, len(names))
	for _, name := range names {
		v, err := preprocess.Parse(name)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, nil
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Float64("threshold", 0.8, "overlap ratio above which detections merge")
	processCmd.Flags().StringSlice("format", []string{"text", "json"}, "export formats (text, json, csv)")
	processCmd.Flags().Bool("visualize", false, "write annotated pages, summary card, and histogram")
	processCmd.Flags().Int("workers", 1, "concurrent page workers")
	processCmd.Flags().Int("dpi", rasterize.DefaultDPI, "nominal rasterization resolution")
	processCmd.Flags().Int("min-detections", 0, "retry pages yielding fewer detections (0 disables)")
	processCmd.Flags().StringSlice("retry", nil, "preprocessing variants for low-yield retries")
	processCmd.Flags().String("search", "", "search the aggregated results and print matches")
	processCmd.Flags().Bool("case-sensitive", false, "make --search case-sensitive")
	processCmd.Flags().BoolP("quiet", "q", false, "suppress per-page progress")

	_ = viper.BindPFlag("dedup.iou_threshold", processCmd.Flags().Lookup("threshold"))
	_ = viper.BindPFlag("run.formats", processCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("run.visualize", processCmd.Flags().Lookup("visualize"))
	_ = viper.BindPFlag("run.workers", processCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("run.min_detections", processCmd.Flags().Lookup("min-detections"))
}
