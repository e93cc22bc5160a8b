package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/scengen/internal/pathutil"
)

// ErrInvalidOutputPath is returned when a scenario is written to a file
// that does not end in .yaml or .yml.
var ErrInvalidOutputPath = errors.New("output path must end in .yaml or .yml")

// Decode parses a scenario document.
func Decode(data []byte) (*Scenario, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return FromMap(raw)
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pathutil.RedactPath(path), err)
	}
	return s, nil
}

// Marshal serializes s to YAML.
func Marshal(s *Scenario) ([]byte, error) {
	return yaml.Marshal(s)
}

// ValidateYAMLPath checks the output suffix, ignoring case.
func ValidateYAMLPath(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidOutputPath, pathutil.RedactPath(path))
}

// WriteFile serializes s to path, creating parent directories. It returns
// the bytes written.
func WriteFile(path string, s *Scenario) ([]byte, error) {
	if err := ValidateYAMLPath(path); err != nil {
		return nil, err
	}
	data, err := Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding scenario: %w", err)
	}
	if err := pathutil.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing scenario: %w", err)
	}
	return data, nil
}
