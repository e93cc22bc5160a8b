package generator

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/nvandessel/scengen/internal/constants"
	"github.com/nvandessel/scengen/internal/digest"
	"github.com/nvandessel/scengen/internal/scenario"
)

// agentCount digests a directive's count. Fractional counts are rounded
// half to even with a warning. Negative, non-numeric and oversized counts
// fail.
func agentCount(d CreateDirective, dg *digest.Digester, logger *slog.Logger) (int, error) {
	v, err := dg.NonNegative(d.Count)
	if err != nil {
		return 0, fmt.Errorf("count of %q: %w", d.ThisAgent, err)
	}

	var n float64
	switch tv := v.(type) {
	case int:
		n = float64(tv)
	case int64:
		n = float64(tv)
	case float64:
		if math.IsNaN(tv) || math.IsInf(tv, 0) {
			return 0, &InvalidAgentCountError{Alias: d.ThisAgent, Count: v}
		}
		n = tv
		if n != math.Trunc(n) {
			rounded := math.RoundToEven(n)
			logger.Warn("agent count is not an integer, rounding",
				"alias", d.ThisAgent, "count", n, "rounded", rounded)
			n = rounded
		}
	default:
		return 0, &InvalidAgentCountError{Alias: d.ThisAgent, Count: v}
	}

	if n < 0 {
		return 0, &InvalidAgentCountError{Alias: d.ThisAgent, Count: v}
	}
	if n > constants.MaxAgentCount {
		return 0, &InvalidAgentCountError{Alias: d.ThisAgent, Count: v, Limit: constants.MaxAgentCount}
	}
	return int(n), nil
}

// Instantiate creates the agents of one create-directive from tpl. Each
// copy gets a placeholder id for the directive's alias, indexed only when
// more than one agent is created, and has its attributes digested on its
// own so copies may differ.
func Instantiate(d CreateDirective, tpl *TypeTemplate, dg *digest.Digester, logger *slog.Logger) ([]*scenario.Agent, error) {
	n, err := agentCount(d, dg, logger)
	if err != nil {
		return nil, err
	}

	agents := make([]*scenario.Agent, 0, n)
	for i := range n {
		a := tpl.Agent.Clone()
		index := i
		if n == 1 {
			index = -1
		}
		a.ID = scenario.Placeholder(d.ThisAgent, index)
		if a.Attributes != nil {
			if _, err := dg.Tree(a.Attributes); err != nil {
				return nil, fmt.Errorf("agent %s: %w", a.ID, err)
			}
		}
		agents = append(agents, a)
	}

	logger.Debug("instantiated agents", "alias", d.ThisAgent, "template", d.TypeTemplate, "count", n)
	return agents, nil
}
