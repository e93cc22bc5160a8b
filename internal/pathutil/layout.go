package pathutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/scengen/internal/constants"
)

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", RedactPath(dir), err)
	}
	return nil
}

// StateDir returns the bookkeeping directory kept inside an output directory.
func StateDir(outputDir string) string {
	return filepath.Join(outputDir, constants.DirName)
}

// SeriesPrefix returns the path that leads from outputDir back to the
// directory holding the base template, which sits at baseTemplate relative
// to configDir. Time-series references in generated scenarios are prefixed
// with it. The result uses forward slashes.
func SeriesPrefix(configDir, outputDir, baseTemplate string) (string, error) {
	absConfig, err := filepath.Abs(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	absOutput, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	rel, err := filepath.Rel(absOutput, absConfig)
	if err != nil {
		return "", fmt.Errorf("relating %s to %s: %w", RedactPath(absOutput), RedactPath(absConfig), err)
	}
	return filepath.ToSlash(filepath.Join(rel, filepath.Dir(baseTemplate))), nil
}
