// Package config provides configuration loading for scengen.
// Application settings come from YAML files and environment variables; run
// configurations (which scenarios to build) are documents of their own,
// validated against a JSON Schema before use.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/scengen/internal/constants"
	"github.com/nvandessel/scengen/internal/logging"
)

// Settings contains all scengen application settings.
type Settings struct {
	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Create contains defaults for the create command.
	Create CreateConfig `json:"create" yaml:"create"`

	// History contains settings for listing the run ledger.
	History HistoryConfig `json:"history" yaml:"history"`
}

// LoggingConfig configures scengen's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "error" (default), "warn", "info",
	// "debug", or "trace". "debug" enables decision logging to
	// <output>/.scengen/decisions.jsonl.
	Level string `json:"level" yaml:"level"`

	// File additionally writes logs to this path. Supports ${VAR} syntax.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// CreateConfig holds defaults for scenario creation.
type CreateConfig struct {
	// Number of scenarios to generate per invocation.
	Number int `json:"number" yaml:"number"`

	// OutputDir receives generated scenarios. Supports ${VAR} syntax.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// HistoryConfig configures the history command.
type HistoryConfig struct {
	// Limit bounds the number of runs listed.
	Limit int `json:"limit" yaml:"limit"`
}

// Default returns Settings with sensible defaults.
func Default() *Settings {
	return &Settings{
		Logging: LoggingConfig{
			Level: constants.DefaultLogLevel,
		},
		Create: CreateConfig{
			Number:    constants.DefaultScenarioCount,
			OutputDir: "./scenarios",
		},
		History: HistoryConfig{
			Limit: constants.DefaultHistoryLimit,
		},
	}
}

// Path returns the default settings file location, ~/.scengen/config.yaml.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, constants.DirName, "config.yaml"), nil
}

// Load loads settings from the default locations and environment variables.
// Order: defaults -> ~/.scengen/config.yaml -> environment variables
func Load() (*Settings, error) {
	settings := Default()

	// Try to load from default config file
	if configPath, err := Path(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileSettings, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			settings = fileSettings
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(settings)

	return settings, nil
}

// LoadFromFile loads settings from a specific YAML file.
func LoadFromFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	settings := Default()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	settings.Logging.File = expandEnvVars(settings.Logging.File)
	settings.Create.OutputDir = expandEnvVars(settings.Create.OutputDir)

	return settings, nil
}

// Validate checks that the settings are valid.
func (c *Settings) Validate() error {
	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	if c.Create.Number < 1 {
		return fmt.Errorf("create.number must be at least 1, got %d", c.Create.Number)
	}

	if c.History.Limit < 1 {
		return fmt.Errorf("history.limit must be at least 1, got %d", c.History.Limit)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the settings.
func applyEnvOverrides(settings *Settings) {
	if v := os.Getenv("SCENGEN_LOG_LEVEL"); v != "" {
		settings.Logging.Level = v
	}

	if v := os.Getenv("SCENGEN_LOG_FILE"); v != "" {
		settings.Logging.File = v
	}

	if v := os.Getenv("SCENGEN_OUTPUT_DIR"); v != "" {
		settings.Create.OutputDir = v
	}

	if v := os.Getenv("SCENGEN_NUMBER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Create.Number = n
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
