package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSeriesPrefix(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name         string
		configDir    string
		outputDir    string
		baseTemplate string
		want         string
	}{
		{"sibling output dir", "config", "out", "base.yaml", "../config"},
		{"template in subdir", "config", "out", "templates/base.yaml", "../config/templates"},
		{"nested output dir", "config", "out/run1", "base.yaml", "../../config"},
		{"same dir", "config", "config", "base.yaml", "."},
		{"output below config", "config", "config/out", "tpl/base.yaml", "../tpl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SeriesPrefix(
				filepath.Join(root, tt.configDir),
				filepath.Join(root, tt.outputDir),
				tt.baseTemplate,
			)
			if err != nil {
				t.Fatalf("SeriesPrefix() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SeriesPrefix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
	// Idempotent
	if err := EnsureDir(dir); err != nil {
		t.Errorf("second EnsureDir() error = %v", err)
	}
	if err := EnsureDir(""); err != nil {
		t.Errorf("EnsureDir(\"\") error = %v", err)
	}
}

func TestStateDir(t *testing.T) {
	if got, want := StateDir("out"), filepath.Join("out", ".scengen"); got != want {
		t.Errorf("StateDir() = %q, want %q", got, want)
	}
}
