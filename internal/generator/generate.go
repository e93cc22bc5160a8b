// Package generator builds a scenario from a base template and a list of
// create-directives.
//
// Generation runs in fixed phases: directives are checked, templates are
// loaded and checked, agents of every directive are instantiated, contracts
// of every directive are expanded, all remaining directives in the tree are
// digested, placeholders are resolved to unique ids, and time-series paths
// are rewritten. Any error aborts generation; no partial scenario is
// returned.
package generator

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nvandessel/scengen/internal/digest"
	"github.com/nvandessel/scengen/internal/logging"
	"github.com/nvandessel/scengen/internal/scenario"
)

// Request holds the inputs of one scenario generation.
type Request struct {
	Directives []CreateDirective
	Base       *scenario.Scenario
	Loader     TemplateLoader
	Seed       int64

	// PickRoot is the directory pickfile directives are relative to.
	PickRoot string

	// SeriesPrefix leads from the output directory back to the base
	// template directory. Empty leaves series paths untouched.
	SeriesPrefix string
}

// Result is a generated scenario.
type Result struct {
	Scenario *scenario.Scenario

	// IDs maps each placeholder to the id it resolved to.
	IDs map[string]int

	// Agents and Contracts count what the directives added.
	Agents    int
	Contracts int

	// SeriesRewrites counts rewritten time-series references.
	SeriesRewrites int
}

type options struct {
	logger    *slog.Logger
	decisions *logging.DecisionLogger
}

// Option configures Generate.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDecisionLogger records every digested directive.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(o *options) { o.decisions = dl }
}

// Generate builds one scenario. The same request and seed always produce
// the same scenario. req.Base is not modified.
func Generate(req Request, opts ...Option) (*Result, error) {
	o := options{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	if req.Base == nil {
		return nil, errors.New("generate: no base scenario")
	}
	if len(req.Directives) > 0 && req.Loader == nil {
		return nil, errors.New("generate: no template loader")
	}

	if err := CheckDirectives(req.Directives); err != nil {
		return nil, err
	}
	templates, err := loadTemplates(req.Directives, req.Loader)
	if err != nil {
		return nil, err
	}

	s := req.Base.Clone()
	dg := digest.New(digest.NewSource(req.Seed), req.PickRoot,
		digest.WithLogger(o.logger), digest.WithDecisionLogger(o.decisions))

	before := len(s.Agents)
	for i, d := range req.Directives {
		agents, err := Instantiate(d, templates[i], dg, o.logger)
		if err != nil {
			return nil, err
		}
		s.Agents = append(s.Agents, agents...)
	}

	contractsBefore := len(s.Contracts)
	for i, d := range req.Directives {
		contracts, err := ExpandContracts(d, templates[i], s.Agents)
		if err != nil {
			return nil, err
		}
		s.Contracts = append(s.Contracts, contracts...)
	}

	if err := digestTree(s, dg); err != nil {
		return nil, err
	}

	ids, err := scenario.Resolve(s, o.logger)
	if err != nil {
		return nil, err
	}

	rewrites := scenario.RewriteSeriesPaths(s, req.SeriesPrefix, o.logger)

	res := &Result{
		Scenario:       s,
		IDs:            ids,
		Agents:         len(s.Agents) - before,
		Contracts:      len(s.Contracts) - contractsBefore,
		SeriesRewrites: rewrites,
	}
	o.logger.Info("generated scenario",
		"seed", req.Seed, "agents_added", res.Agents, "contracts_added", res.Contracts,
		"series_rewrites", rewrites)
	return res, nil
}

// Validate runs every check Generate performs before instantiation: the
// directive checks, template loading and the static-contract check. Count
// expressions are digested with a throwaway source to catch bad syntax.
func Validate(directives []CreateDirective, loader TemplateLoader) error {
	if err := CheckDirectives(directives); err != nil {
		return err
	}
	if len(directives) > 0 && loader == nil {
		return errors.New("validate: no template loader")
	}
	if _, err := loadTemplates(directives, loader); err != nil {
		return err
	}
	dg := digest.New(digest.NewSource(0), "")
	for _, d := range directives {
		if _, err := agentCount(d, dg, logging.Discard()); err != nil {
			return err
		}
	}
	return nil
}

func loadTemplates(directives []CreateDirective, loader TemplateLoader) ([]*TypeTemplate, error) {
	templates := make([]*TypeTemplate, len(directives))
	for i, d := range directives {
		tpl, err := loader.Load(d.TypeTemplate)
		if err != nil {
			return nil, fmt.Errorf("template of %q: %w", d.ThisAgent, err)
		}
		if err := checkStaticContracts(d.TypeTemplate, tpl); err != nil {
			return nil, err
		}
		templates[i] = tpl
	}
	return templates, nil
}

// digestTree digests every field outside instantiated attributes: top-level
// passthrough keys, agents and contracts. Already digested values pass
// through unchanged.
func digestTree(s *scenario.Scenario, dg *digest.Digester) error {
	if _, err := dg.Tree(s.Extra); err != nil {
		return err
	}
	for _, a := range s.Agents {
		if _, err := dg.Tree(a.Extra); err != nil {
			return fmt.Errorf("agent %s: %w", a.ID, err)
		}
		if a.Attributes != nil {
			if _, err := dg.Tree(a.Attributes); err != nil {
				return fmt.Errorf("agent %s: %s: %w", a.ID, scenario.KeyAttributes, err)
			}
		}
	}
	for i, c := range s.Contracts {
		if _, err := dg.Tree(c.Extra); err != nil {
			return fmt.Errorf("contract #%d: %w", i, err)
		}
	}
	return nil
}
