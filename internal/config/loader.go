package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file base name (without extension).
	FileName = ".textsift"

	// EnvPrefix is the environment variable prefix (TEXTSIFT_…).
	EnvPrefix = "TEXTSIFT"
)

// Loader reads configuration through a viper instance so cobra flag
// bindings and environment overrides merge with file contents.
type Loader struct {
	v *viper.Viper
}

// NewLoader wraps the global viper instance, which the root command also
// binds its flags into.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads the config from the search paths (or the explicit file when
// set), applies env and defaults, unmarshals and validates. A missing
// config file is fine; defaults and env carry the run.
func (l *Loader) Load(explicitFile string) (*Config, error) {
	l.setup()

	if explicitFile != "" {
		if _, err := os.Stat(explicitFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", explicitFile, err)
		}
		l.v.SetConfigFile(explicitFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", explicitFile, err)
		}
	} else if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FileUsed returns the config file path viper ended up reading, if any.
func (l *Loader) FileUsed() string { return l.v.ConfigFileUsed() }

func (l *Loader) setup() {
	l.v.SetConfigName(FileName)
	l.v.SetConfigType("yaml")

	for _, p := range SearchPaths() {
		l.v.AddConfigPath(p)
	}

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()

	l.setDefaults()
}

// SearchPaths returns the config file search order.
func SearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(xdg, "textsift"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "textsift"))
	}
	return append(paths, "/etc/textsift")
}

// setDefaults seeds viper so env vars bind without a config file present.
func (l *Loader) setDefaults() {
	d := DefaultConfig()
	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("output_dir", d.OutputDir)
	l.v.SetDefault("retention", d.Retention)
	l.v.SetDefault("languages", d.Languages)
	l.v.SetDefault("dedup.iou_threshold", d.Dedup.IoUThreshold)
	l.v.SetDefault("engine.models_dir", d.Engine.ModelsDir)
	l.v.SetDefault("engine.det_threshold", d.Engine.DetThreshold)
	l.v.SetDefault("engine.min_region_area", d.Engine.MinRegionArea)
	l.v.SetDefault("engine.num_threads", d.Engine.NumThreads)
	l.v.SetDefault("run.formats", d.Run.Formats)
	l.v.SetDefault("run.visualize", d.Run.Visualize)
	l.v.SetDefault("run.workers", d.Run.Workers)
	l.v.SetDefault("run.min_detections", d.Run.MinDetections)
	l.v.SetDefault("server.host", d.Server.Host)
	l.v.SetDefault("server.port", d.Server.Port)
	l.v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	l.v.SetDefault("server.rate_limit_rps", d.Server.RateLimitRPS)
	l.v.SetDefault("server.rate_limit_burst", d.Server.RateLimitBurst)
}

// GenerateDefaultConfigFile writes the default settings as YAML.
// It refuses to overwrite an existing file.
func GenerateDefaultConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
