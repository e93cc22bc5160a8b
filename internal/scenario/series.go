package scenario

import (
	"log/slog"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nvandessel/scengen/internal/constants"
	"github.com/nvandessel/scengen/internal/logging"
)

// RewriteSeriesPaths prefixes every relative time-series reference in agent
// attributes with prefix, so the references stay valid when the scenario is
// written somewhere other than the template directory. Files need not exist.
// It returns the number of rewritten values.
func RewriteSeriesPaths(s *Scenario, prefix string, logger *slog.Logger) int {
	if logger == nil {
		logger = logging.Discard()
	}
	prefix = filepath.ToSlash(prefix)
	if prefix == "" || prefix == "." {
		logger.Debug("no series prefix, paths left as is")
		return 0
	}

	n := 0
	for _, a := range s.Agents {
		n += rewriteSeries(a.Attributes, prefix, logger)
	}
	return n
}

func rewriteSeries(v any, prefix string, logger *slog.Logger) int {
	n := 0
	switch tv := v.(type) {
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(tv)) {
			if s, ok := tv[k].(string); ok {
				if nv, ok := prefixSeries(s, prefix); ok {
					tv[k] = nv
					n++
					continue
				}
				logger.Debug("no path to rewrite", "key", k)
				continue
			}
			n += rewriteSeries(tv[k], prefix, logger)
		}
	case []any:
		for i, item := range tv {
			if s, ok := item.(string); ok {
				if nv, ok := prefixSeries(s, prefix); ok {
					tv[i] = nv
					n++
				}
				continue
			}
			n += rewriteSeries(item, prefix, logger)
		}
	}
	return n
}

func prefixSeries(s, prefix string) (string, bool) {
	if !strings.HasSuffix(strings.ToLower(s), constants.SeriesExtension) {
		return s, false
	}
	if filepath.IsAbs(s) || path.IsAbs(filepath.ToSlash(s)) {
		return s, false
	}
	return path.Join(prefix, filepath.ToSlash(s)), true
}
