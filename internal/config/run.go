package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/scengen/internal/generator"
	"github.com/nvandessel/scengen/internal/pathutil"
)

// RunConfig is a run configuration: which base template to start from and
// which agents to create on top of it.
type RunConfig struct {
	Defaults     Defaults                    `json:"defaults" yaml:"defaults"`
	BaseTemplate string                      `json:"base_template" yaml:"base_template"`
	Create       []generator.CreateDirective `json:"create,omitempty" yaml:"create,omitempty"`

	path string
	doc  yaml.Node
}

// Defaults holds naming and seeding for generated scenarios.
type Defaults struct {
	// BaseName prefixes every generated scenario file name.
	BaseName string `json:"base_name" yaml:"base_name"`

	// Seed fixes the base random seed. Unset means the trace file's stored
	// seed, or wall-clock time when there is none.
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// TraceFile holds the run counter and seed, relative to the config.
	TraceFile string `json:"trace_file,omitempty" yaml:"trace_file,omitempty"`
}

// LoadRun reads and validates a run configuration.
func LoadRun(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run configuration: %w", err)
	}

	rc := &RunConfig{path: path}
	if err := yaml.Unmarshal(data, &rc.doc); err != nil {
		return nil, fmt.Errorf("parsing run configuration: %w", err)
	}
	if rc.doc.Kind != yaml.DocumentNode || len(rc.doc.Content) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrSchema, pathutil.RedactPath(path))
	}

	var raw any
	if err := rc.doc.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing run configuration: %w", err)
	}
	if err := ValidateRunDocument(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", pathutil.RedactPath(path), err)
	}
	if err := rc.doc.Decode(rc); err != nil {
		return nil, fmt.Errorf("decoding run configuration: %w", err)
	}
	return rc, nil
}

// Path returns the file the configuration was loaded from.
func (rc *RunConfig) Path() string { return rc.path }

// Dir returns the directory relative references are resolved against.
func (rc *RunConfig) Dir() string { return filepath.Dir(rc.path) }

// ResolvePath joins a reference from the configuration to Dir unless it is
// absolute.
func (rc *RunConfig) ResolvePath(ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(rc.Dir(), filepath.FromSlash(ref))
}

// BaseTemplatePath returns the resolved base template location.
func (rc *RunConfig) BaseTemplatePath() string {
	return rc.ResolvePath(rc.BaseTemplate)
}

// TraceFilePath returns the resolved trace file location, or "" if unset.
func (rc *RunConfig) TraceFilePath() string {
	if rc.Defaults.TraceFile == "" {
		return ""
	}
	return rc.ResolvePath(rc.Defaults.TraceFile)
}

// SetTraceFile records name as defaults.trace_file and rewrites the
// configuration file. Other content and comments are kept.
func (rc *RunConfig) SetTraceFile(name string) error {
	if len(rc.doc.Content) == 0 {
		return errors.New("run configuration was not loaded from a file")
	}
	root := rc.doc.Content[0]
	defaults := mappingValue(root, "defaults")
	if defaults == nil {
		return fmt.Errorf("%w: no defaults mapping", ErrSchema)
	}
	setScalar(defaults, "trace_file", name)

	data, err := yaml.Marshal(&rc.doc)
	if err != nil {
		return fmt.Errorf("encoding run configuration: %w", err)
	}
	if err := os.WriteFile(rc.path, data, 0644); err != nil {
		return fmt.Errorf("writing run configuration: %w", err)
	}
	rc.Defaults.TraceFile = name
	return nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setScalar(m *yaml.Node, key, value string) {
	if v := mappingValue(m, key); v != nil {
		v.Kind = yaml.ScalarNode
		v.Tag = "!!str"
		v.Value = value
		v.Content = nil
		return
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}
