// Package config defines the configuration tree and its viper-backed
// loader. Precedence: flags over environment over config file over
// defaults; flag binding happens in the command layer.
package config

import (
	"fmt"
	"slices"

	"github.com/textsift/textsift/internal/dedup"
	"github.com/textsift/textsift/internal/engine"
	"github.com/textsift/textsift/internal/session"
)

var validFormats = []string{"text", "json", "csv"}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Config is the full configuration tree.
type Config struct {
	LogLevel  string   `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	OutputDir string   `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	Retention int      `mapstructure:"retention" yaml:"retention" json:"retention"`
	Languages []string `mapstructure:"languages" yaml:"languages" json:"languages"`

	Dedup  dedup.Config  `mapstructure:"dedup" yaml:"dedup" json:"dedup"`
	Engine engine.Config `mapstructure:"engine" yaml:"engine" json:"engine"`
	Run    RunConfig     `mapstructure:"run" yaml:"run" json:"run"`
	Server ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
}

// RunConfig holds per-run processing options.
type RunConfig struct {
	Formats       []string `mapstructure:"formats" yaml:"formats" json:"formats"`
	Visualize     bool     `mapstructure:"visualize" yaml:"visualize" json:"visualize"`
	Workers       int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	MinDetections int      `mapstructure:"min_detections" yaml:"min_detections" json:"min_detections"`
}

// ServerConfig holds the HTTP API options.
type ServerConfig struct {
	Host           string `mapstructure:"host" yaml:"host" json:"host"`
	Port           int    `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadMB    int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	RateLimitRPS   int    `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst int    `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst" json:"rate_limit_burst"`
}

// DefaultConfig returns the defaults every other source overlays.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		OutputDir: session.DefaultBaseDir,
		Retention: session.DefaultRetention,
		Languages: []string{"en"},
		Dedup:     dedup.DefaultConfig(),
		Engine:    engine.DefaultConfig(),
		Run: RunConfig{
			Formats: []string{"text", "json"},
			Workers: 1,
		},
		Server: ServerConfig{
			Host:           "localhost",
			Port:           8080,
			MaxUploadMB:    50,
			RateLimitRPS:   10,
			RateLimitBurst: 20,
		},
	}
}

// Validate checks the whole tree.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("log_level %q must be one of %v", c.LogLevel, validLogLevels)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.Retention < 0 {
		return fmt.Errorf("retention %d is negative", c.Retention)
	}
	if len(c.Languages) == 0 {
		return fmt.Errorf("languages must not be empty")
	}
	if err := c.Dedup.Validate(); err != nil {
		return fmt.Errorf("dedup: %w", err)
	}
	if err := c.Run.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Engine.GPU.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// Validate checks run options.
func (c RunConfig) Validate() error {
	for _, f := range c.Formats {
		if !slices.Contains(validFormats, f) {
			return fmt.Errorf("format %q must be one of %v", f, validFormats)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d is negative", c.Workers)
	}
	if c.MinDetections < 0 {
		return fmt.Errorf("min_detections %d is negative", c.MinDetections)
	}
	return nil
}

// Validate checks server options.
func (c ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d outside [1, 65535]", c.Port)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("max_upload_mb %d must be at least 1", c.MaxUploadMB)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit values must be non-negative")
	}
	return nil
}

// Addr renders the server listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
