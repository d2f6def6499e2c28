package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "trace"
	assert.Error(t, cfg.Validate())

	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		cfg.LogLevel = lvl
		assert.NoError(t, cfg.Validate(), lvl)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"negative retention", func(c *Config) { c.Retention = -1 }},
		{"no languages", func(c *Config) { c.Languages = nil }},
		{"threshold above 1", func(c *Config) { c.Dedup.IoUThreshold = 1.5 }},
		{"unknown format", func(c *Config) { c.Run.Formats = []string{"pdf"} }},
		{"negative workers", func(c *Config) { c.Run.Workers = -2 }},
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"zero upload cap", func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{"negative gpu device", func(c *Config) { c.Engine.GPU.UseGPU = true; c.Engine.GPU.DeviceID = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestServerAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
}
