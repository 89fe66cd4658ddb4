// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"gopkg.microglot.org/atf.go/internal/export"
)

// Config holds the settings of the atfc command.
type Config struct {
	Roots          []string `toml:"roots"`
	Output         string   `toml:"output"`
	Format         string   `toml:"format"`
	MaxConcurrency int      `toml:"max_concurrency"`
	LogLevel       string   `toml:"log_level"`
	DumpTokens     bool     `toml:"dump_tokens"`
	DumpTree       bool     `toml:"dump_tree"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load decodes the TOML file at path, expanding environment variables in
// the path. Unknown keys are rejected. Missing keys take their defaults.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for missing configuration.
func (c *Config) applyDefaults() {
	if len(c.Roots) == 0 {
		c.Roots = []string{"."}
	}
	if c.Output == "" {
		c.Output = "-"
	}
	if c.Format == "" {
		c.Format = string(export.FormatText)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	if _, err := export.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must not be negative, got %d", c.MaxConcurrency)
	}
	return nil
}

// Level returns the configured log level, falling back to info.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
