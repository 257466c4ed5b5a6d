// Package config loads and validates the server configuration from file,
// environment, and defaults.
package config

import (
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/typlsp/internal/position"
)

// ExportMode controls when a compile pass also exports a document.
type ExportMode string

const (
	// ExportNever disables export; edits run evaluation-only passes.
	ExportNever ExportMode = "never"
	// ExportOnSave exports when the editor saves the document.
	ExportOnSave ExportMode = "onSave"
	// ExportOnType exports after every change notification.
	ExportOnType ExportMode = "onType"
)

// Config is the top-level configuration struct.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Export   ExportConfig   `mapstructure:"export"`
	Eviction EvictionConfig `mapstructure:"eviction"`
	Fonts    FontsConfig    `mapstructure:"fonts"`
	Position PositionConfig `mapstructure:"position"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// ExportConfig holds document-export settings.
type ExportConfig struct {
	Mode string `mapstructure:"mode"`
}

// EvictionConfig bounds the engine's memoization cache.
type EvictionConfig struct {
	// MaxAge is how many passes an entry may sit unused before eviction.
	MaxAge uint64 `mapstructure:"max_age"`
}

// FontsConfig holds font discovery settings.
type FontsConfig struct {
	// Dirs are scanned recursively for font files.
	Dirs []string `mapstructure:"dirs"`
	// Embedded enables the fonts compiled into the binary.
	Embedded bool `mapstructure:"embedded"`
}

// PositionConfig holds the position-encoding override.
type PositionConfig struct {
	Encoding string `mapstructure:"encoding"`
}

// MetricsConfig holds the optional Prometheus listener address. Empty
// disables the listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	switch ExportMode(c.Export.Mode) {
	case ExportNever, ExportOnSave, ExportOnType:
	default:
		return fmt.Errorf("invalid export mode %q", c.Export.Mode)
	}

	if c.Eviction.MaxAge == 0 {
		return fmt.Errorf("eviction max_age must be at least 1")
	}

	_, err := position.ParseEncoding(c.Position.Encoding)
	if err != nil {
		return err
	}

	_, err = parseLogLevel(c.Log.Level)
	if err != nil {
		return err
	}

	return nil
}

// ExportModeValue returns the typed export mode. Call after Validate.
func (c *Config) ExportModeValue() ExportMode {
	return ExportMode(c.Export.Mode)
}

// Encoding returns the typed position encoding. Call after Validate.
func (c *Config) Encoding() position.Encoding {
	enc, _ := position.ParseEncoding(c.Position.Encoding)

	return enc
}

// LogLevel returns the typed log level. Call after Validate.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLogLevel(c.Log.Level)

	return level
}

func parseLogLevel(label string) (slog.Level, error) {
	switch label {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", label)
	}
}
