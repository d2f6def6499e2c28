// Package cmd holds the textsift command tree.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/textsift/textsift/internal/config"
	"github.com/textsift/textsift/internal/engine"
	"github.com/textsift/textsift/internal/session"
	"github.com/textsift/textsift/internal/version"
)

var (
	cfgFile      string
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "textsift",
	Short: "Document text extraction with overlap deduplication",
	Long: `textsift runs documents (images and PDFs) through an OCR engine,
merges overlapping detections across recognition passes, and writes the
aggregated results into timestamped session directories.

Examples:
  textsift process scan.pdf --languages en,ar
  textsift batch ./scans --recursive --workers 4
  textsift sessions prune --keep 3
  textsift serve --port 8080`,
	Version:      version.String(),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewLoader().Load(cfgFile)
		if err != nil {
			return err
		}
		globalConfig = cfg

		level := parseLogLevel(cfg.LogLevel)
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the command tree. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand exposes the root command so tests can execute subcommands
// without os.Exit.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

// GetConfig returns the loaded configuration, reading it on first use when
// a command runs outside rootCmd (tests mostly).
func GetConfig() (*config.Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}
	cfg, err := config.NewLoader().Load(cfgFile)
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

// buildEngine constructs the recognition engine. TEXTSIFT_ENGINE=mock
// substitutes the scripted mock so the CLI lifecycle can run without ONNX
// models installed.
func buildEngine(cfg *config.Config) (engine.Engine, error) {
	if os.Getenv("TEXTSIFT_ENGINE") == "mock" {
		return engine.NewMock(cfg.Languages...), nil
	}
	ecfg := cfg.Engine
	ecfg.Languages = cfg.Languages
	eng, err := engine.NewONNX(ecfg)
	if err != nil {
		return nil, fmt.Errorf("initialize engine: %w", err)
	}
	return eng, nil
}

func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		fmt.Sprintf("config file (default: search %s.yaml in ., $HOME, XDG config, /etc/textsift)", config.FileName))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (same as --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("output-dir", session.DefaultBaseDir, "session base directory")
	rootCmd.PersistentFlags().StringSlice("languages", []string{"en"}, "recognition language codes, in pass order")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	_ = viper.BindPFlag("languages", rootCmd.PersistentFlags().Lookup("languages"))
}
