package cmd

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/engine"
	"github.com/textsift/textsift/internal/export"
	"github.com/textsift/textsift/internal/geometry"
	"github.com/textsift/textsift/internal/models"
	"github.com/textsift/textsift/internal/runner"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run a synthetic end-to-end check",
	Long: `Run a scripted document through the full pipeline (session, merge,
export) in a temporary directory, then report whether ONNX models are
installed for the configured languages. The synthetic run never needs
models.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		if err := runSynthetic(cmd); err != nil {
			return fmt.Errorf("pipeline check failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "pipeline check: ok")

		reportModels(cmd, cfg.Engine.ModelsDir, cfg.Languages)
		return nil
	},
}

// runSynthetic drives a two-pass scripted run and verifies the overlap
// merge and the exported artifacts.
func runSynthetic(cmd *cobra.Command) error {
	base, err := os.MkdirTemp("", "textsift-selftest-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(base) }()

	page := filepath.Join(base, "page.png")
	if err := imaging.Save(imaging.New(60, 40, color.White), page); err != nil {
		return fmt.Errorf("write synthetic page: %w", err)
	}

	first := aggregate.Detection{
		Text:       "SAMPLE",
		Confidence: 0.9,
		Box:        geometry.NewBox(0, 0, 50, 20),
	}
	overlap := aggregate.Detection{
		Text:       "SAMPL",
		Confidence: 0.6,
		Box:        geometry.NewBox(2, 1, 50, 20),
	}
	mock := engine.NewMock("en", "ar").
		Script("en", []aggregate.Detection{first}).
		Script("ar", []aggregate.Detection{overlap})

	run, err := runner.NewBuilder().
		WithEngine(mock).
		WithLanguages("en", "ar").
		WithSessionBase(filepath.Join(base, "sessions")).
		WithExportFormats(runner.FormatText, runner.FormatJSON, runner.FormatCSV).
		Build()
	if err != nil {
		return err
	}

	report, err := run.ProcessDocument(cmd.Context(), page)
	if err != nil {
		return err
	}
	if report.Stats.TotalDetections != 1 {
		return fmt.Errorf("expected overlapping passes to merge to 1 detection, got %d",
			report.Stats.TotalDetections)
	}
	for _, name := range []string{export.TextReportName, export.JSONDumpName, export.CSVName} {
		if _, err := os.Stat(report.Session.File(name)); err != nil {
			return fmt.Errorf("missing artifact %s: %w", name, err)
		}
	}
	return nil
}

// reportModels prints model availability per configured language.
func reportModels(cmd *cobra.Command, modelsDir string, languages []string) {
	dir := models.Dir(modelsDir)
	av := models.Check(dir, languages)

	status := func(ok bool) string {
		if ok {
			return "ok"
		}
		return "missing"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "models dir: %s\n", dir)
	fmt.Fprintf(cmd.OutOrStdout(), "detection model: %s\n", status(av.Detection))

	langs := make([]string, 0, len(av.Languages))
	for lang := range av.Languages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		fmt.Fprintf(cmd.OutOrStdout(), "recognition %s: %s\n", lang, status(av.Languages[lang]))
	}
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}
