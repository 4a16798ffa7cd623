package main

import (
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds defaults an operator can pin in a file instead of retyping
// on every invocation, loaded with --config and overridden by any flag the
// user passes explicitly.
type Config struct {
	Level      zapcore.Level `yaml:"level"`
	MiniFormat string        `yaml:"mini_format"`
	DateFormat string        `yaml:"date_format"`
	ShowLevel  bool          `yaml:"show_level"`
	ShowSource bool          `yaml:"show_source"`
}

// DefaultConfig returns the defaults baked into the flag definitions
// themselves, so a config file only needs to override what an operator
// actually wants to change.
func DefaultConfig() Config {
	return Config{
		Level:      zapcore.InfoLevel,
		MiniFormat: "(%04x)",
		DateFormat: "2006-01-02T15:04:05.000000Z07:00",
	}
}

// LoadConfig reads and unmarshals a YAML config file at path into
// DefaultConfig's result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("mlogcat: read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("mlogcat: parse config %q: %w", path, err)
	}
	return cfg, nil
}
