// Package trace keeps the run counter and base seed of a run configuration
// in a small YAML document, so repeated invocations continue numbering and
// seeding where the last one stopped.
package trace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/scengen/internal/constants"
	"github.com/nvandessel/scengen/internal/pathutil"
)

// File is the trace document.
type File struct {
	// TotalCount is the number of scenarios generated so far.
	TotalCount int `yaml:"total_count" json:"total_count"`

	// Seed is the base seed in use. Each scenario is seeded with
	// Seed + TotalCount.
	Seed *int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// DefaultName returns the file name used for an auto-created trace file.
func DefaultName(now time.Time) string {
	return "trace_file_" + now.Format(constants.TraceFileTimeLayout) + ".yaml"
}

// Tracker reads and updates one trace file.
type Tracker struct {
	path string
	file File
}

// Open reads the trace file at path, creating it with a zero count if it
// does not exist.
func Open(path string) (*Tracker, error) {
	t := &Tracker{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := t.Save(); err != nil {
			return nil, err
		}
		return t, nil
	case err != nil:
		return nil, fmt.Errorf("reading trace file: %w", err)
	}

	if err := yaml.Unmarshal(data, &t.file); err != nil {
		return nil, fmt.Errorf("parsing trace file %s: %w", pathutil.RedactPath(path), err)
	}
	if t.file.TotalCount < 0 {
		return nil, fmt.Errorf("trace file %s: negative total_count %d", pathutil.RedactPath(path), t.file.TotalCount)
	}
	return t, nil
}

// Path returns the trace file location.
func (t *Tracker) Path() string { return t.path }

// TotalCount returns the number of scenarios generated so far.
func (t *Tracker) TotalCount() int { return t.file.TotalCount }

// Seed returns the stored base seed.
func (t *Tracker) Seed() (int64, bool) {
	if t.file.Seed == nil {
		return 0, false
	}
	return *t.file.Seed, true
}

// SetSeed stores seed as the base seed and saves.
func (t *Tracker) SetSeed(seed int64) error {
	t.file.Seed = &seed
	return t.Save()
}

// Increment advances the counter by one and saves.
func (t *Tracker) Increment() error {
	t.file.TotalCount++
	return t.Save()
}

// Save writes the trace file, creating parent directories.
func (t *Tracker) Save() error {
	data, err := yaml.Marshal(&t.file)
	if err != nil {
		return fmt.Errorf("encoding trace file: %w", err)
	}
	if err := pathutil.EnsureDir(filepath.Dir(t.path)); err != nil {
		return err
	}
	if err := os.WriteFile(t.path, data, 0644); err != nil {
		return fmt.Errorf("writing trace file: %w", err)
	}
	return nil
}
