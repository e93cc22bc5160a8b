package generator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/scengen/internal/pathutil"
	"github.com/nvandessel/scengen/internal/scenario"
	"github.com/nvandessel/scengen/internal/utils"
)

// Type template keys.
const (
	keyAgent     = "Agent"
	keyContracts = "Contracts"
)

// TypeTemplate is an agent prototype plus the contracts every instance of
// it takes part in.
type TypeTemplate struct {
	Agent     *scenario.Agent
	Contracts []*scenario.Contract
}

// Clone returns a deep copy of t.
func (t *TypeTemplate) Clone() *TypeTemplate {
	out := &TypeTemplate{Agent: t.Agent.Clone()}
	for _, c := range t.Contracts {
		out.Contracts = append(out.Contracts, c.Clone())
	}
	return out
}

// DecodeTypeTemplate parses a type template document with an Agent mapping
// and an optional Contracts list.
func DecodeTypeTemplate(data []byte) (*TypeTemplate, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing type template: %w", err)
	}

	am := utils.GetMap(raw, keyAgent)
	if am == nil {
		return nil, errors.New("type template has no Agent mapping")
	}
	agent, err := scenario.AgentFromMap(am)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyAgent, err)
	}

	t := &TypeTemplate{Agent: agent}
	for i, item := range utils.EnsureList(raw[keyContracts]) {
		cm := utils.AsMap(item)
		if cm == nil {
			return nil, fmt.Errorf("%s[%d]: expected a mapping, got %T", keyContracts, i, item)
		}
		c, err := scenario.ContractFromMap(cm)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", keyContracts, i, err)
		}
		t.Contracts = append(t.Contracts, c)
	}
	return t, nil
}

// TemplateLoader resolves a type_template reference to a parsed template.
// Implementations return a template the caller may mutate.
type TemplateLoader interface {
	Load(ref string) (*TypeTemplate, error)
}

// TemplateLoaderFunc adapts a function to TemplateLoader.
type TemplateLoaderFunc func(ref string) (*TypeTemplate, error)

// Load calls f(ref).
func (f TemplateLoaderFunc) Load(ref string) (*TypeTemplate, error) { return f(ref) }

// DirLoader loads templates from files relative to Root. Parsed templates
// are cached; each Load returns a fresh copy.
type DirLoader struct {
	Root string

	mu    sync.Mutex
	cache map[string]*TypeTemplate
}

// NewDirLoader returns a loader for templates under root.
func NewDirLoader(root string) *DirLoader {
	return &DirLoader{Root: root, cache: make(map[string]*TypeTemplate)}
}

// Load reads root/ref.
func (l *DirLoader) Load(ref string) (*TypeTemplate, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.Root, filepath.FromSlash(ref))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.cache[path]; ok {
		return t.Clone(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading type template: %w", err)
	}
	t, err := DecodeTypeTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pathutil.RedactPath(path), err)
	}
	if l.cache == nil {
		l.cache = make(map[string]*TypeTemplate)
	}
	l.cache[path] = t
	return t.Clone(), nil
}
