// Package digest resolves value-generation directives embedded in scenario
// fields into concrete values.
//
// A directive is a string of the form name(arg1;arg2;...). Recognized names,
// matched case-insensitively:
//
//	range_int(min;max)    uniform integer in [min,max]
//	range_float(min;max)  uniform float in [min,max]
//	choose(v1;v2;...)     uniform pick; literals are cast to int, then float
//	pickfile(dir)         uniform pick among regular files in dir
//
// Any other value passes through unchanged. The legacy range(...) form is
// rejected. Randomness comes from the Source handed to New; the package holds
// no seed state of its own.
package digest

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/nvandessel/scengen/internal/constants"
	"github.com/nvandessel/scengen/internal/logging"
)

var (
	directivePattern = regexp.MustCompile(`(?is)^\s*(` +
		constants.DirectiveRangeInt + `|` +
		constants.DirectiveRangeFloat + `|` +
		constants.DirectiveChoose + `|` +
		constants.DirectivePickFile + `)\s*\((.*)\)\s*$`)

	deprecatedPattern = regexp.MustCompile(`(?i)\b` + constants.DirectiveDeprecatedRange + `\s*\(`)
)

// Digester resolves directives using a shared random source.
type Digester struct {
	src       Source
	root      string
	logger    *slog.Logger
	decisions *logging.DecisionLogger
}

// Option configures a Digester.
type Option func(*Digester)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Digester) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithDecisionLogger records every randomized choice as a JSONL event.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(d *Digester) { d.decisions = dl }
}

// New creates a Digester drawing from src. pickfile directories are
// resolved relative to root.
func New(src Source, root string, opts ...Option) *Digester {
	d := &Digester{
		src:    src,
		root:   root,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Value digests a single field, allowing negative range bounds.
func (d *Digester) Value(v any) (any, error) {
	return d.digest(v, true)
}

// NonNegative digests a single field and rejects ranges with a negative bound.
// Used for counts.
func (d *Digester) NonNegative(v any) (any, error) {
	return d.digest(v, false)
}

// Tree digests every leaf of a nested structure in place and returns it.
// Map keys are visited in sorted order so a seeded source yields the same
// tree on every run. Errors carry the dotted path of the offending leaf.
func (d *Digester) Tree(v any) (any, error) {
	switch tv := v.(type) {
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(tv)) {
			nv, err := d.Tree(tv[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			tv[k] = nv
		}
		return tv, nil
	case map[any]any:
		keys := make(map[string]any, len(tv))
		for k := range tv {
			keys[fmt.Sprint(k)] = k
		}
		for _, ks := range slices.Sorted(maps.Keys(keys)) {
			k := keys[ks]
			nv, err := d.Tree(tv[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", ks, err)
			}
			tv[k] = nv
		}
		return tv, nil
	case []any:
		for i, item := range tv {
			nv, err := d.Tree(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			tv[i] = nv
		}
		return tv, nil
	default:
		return d.Value(v)
	}
}

func (d *Digester) digest(v any, allowNegative bool) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}

	if deprecatedPattern.MatchString(s) {
		return nil, &DeprecatedDirectiveError{Input: s}
	}

	m := directivePattern.FindStringSubmatch(s)
	if m == nil {
		return v, nil
	}

	name := strings.ToLower(m[1])
	args := m[2]

	var (
		value any
		err   error
	)
	switch name {
	case constants.DirectiveRangeInt:
		value, err = d.rangeInt(s, args, allowNegative)
	case constants.DirectiveRangeFloat:
		value, err = d.rangeFloat(s, args, allowNegative)
	case constants.DirectiveChoose:
		value, err = d.choose(s, args)
	case constants.DirectivePickFile:
		value, err = d.pickFile(s, args)
	}
	if err != nil {
		return nil, err
	}

	d.logger.Debug("chose random value", "directive", name, "input", s, "value", value)
	d.decisions.Record(logging.Decision{Directive: name, Input: s, Value: value})
	return value, nil
}

func (d *Digester) rangeInt(input, args string, allowNegative bool) (int, error) {
	parts := splitArgs(args)
	if len(parts) != 2 {
		return 0, &RangeError{Input: input, Reason: "expected exactly two values", AllowNegative: allowNegative}
	}
	lo, errLo := strconv.Atoi(parts[0])
	hi, errHi := strconv.Atoi(parts[1])
	if errLo != nil || errHi != nil {
		return 0, &RangeError{Input: input, Reason: fmt.Sprintf("could not map range values %q to minimum, maximum integers", args), AllowNegative: allowNegative}
	}
	if !allowNegative && (lo < 0 || hi < 0) {
		return 0, &RangeError{Input: input, Reason: "negative values are not allowed here", AllowNegative: allowNegative}
	}
	if lo > hi {
		return 0, &RangeError{Input: input, Reason: "minimum must not be larger than maximum", AllowNegative: allowNegative}
	}

	// The span wraps to 0 only for the full int64 range.
	span := uint64(hi) - uint64(lo) + 1
	var offset uint64
	if span == 0 {
		offset = d.src.Uint64()
	} else {
		offset = d.src.Uint64N(span)
	}
	return lo + int(offset), nil
}

func (d *Digester) rangeFloat(input, args string, allowNegative bool) (float64, error) {
	parts := splitArgs(args)
	if len(parts) != 2 {
		return 0, &RangeError{Input: input, Reason: "expected exactly two values", AllowNegative: allowNegative}
	}
	lo, errLo := strconv.ParseFloat(parts[0], 64)
	hi, errHi := strconv.ParseFloat(parts[1], 64)
	if errLo != nil || errHi != nil || !isFinite(lo) || !isFinite(hi) {
		return 0, &RangeError{Input: input, Reason: fmt.Sprintf("could not map range values %q to minimum, maximum floats", args), AllowNegative: allowNegative}
	}
	if err := checkBounds(input, lo, hi, allowNegative); err != nil {
		return 0, err
	}
	if lo == hi {
		return lo, nil
	}
	return lo + d.src.Float64()*(hi-lo), nil
}

func (d *Digester) choose(input, args string) (any, error) {
	parts := splitArgs(args)
	if len(parts) == 1 && parts[0] == "" {
		return nil, &DirectiveError{Input: input, Reason: "no options to choose from"}
	}
	options := make([]any, len(parts))
	for i, p := range parts {
		options[i] = castNumeric(p)
	}
	return options[d.src.IntN(len(options))], nil
}

func (d *Digester) pickFile(input, args string) (string, error) {
	rel := trimLiteral(args)
	if rel == "" {
		return "", &DirectiveError{Input: input, Reason: "no directory given"}
	}

	dir := filepath.Join(d.root, filepath.FromSlash(rel))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("pickfile %q: %w", input, err)
	}

	// os.ReadDir returns entries sorted by name
	var files []string
	for _, e := range entries {
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, e.Name())
	}
	if len(files) == 0 {
		return "", &DirectiveError{Input: input, Reason: fmt.Sprintf("no files found in %q", rel)}
	}

	return path.Join(filepath.ToSlash(rel), files[d.src.IntN(len(files))]), nil
}

// checkBounds validates the bounds of range_float.
func checkBounds(input string, lo, hi float64, allowNegative bool) error {
	if !allowNegative && (lo < 0 || hi < 0) {
		return &RangeError{Input: input, Reason: "negative values are not allowed here", AllowNegative: allowNegative}
	}
	if lo > hi {
		return &RangeError{Input: input, Reason: "minimum must not be larger than maximum", AllowNegative: allowNegative}
	}
	return nil
}

func splitArgs(args string) []string {
	parts := strings.Split(args, constants.DirectiveSeparator)
	for i, p := range parts {
		parts[i] = trimLiteral(p)
	}
	return parts
}

// trimLiteral strips blanks and surrounding quotes.
func trimLiteral(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// castNumeric returns s as int, else float64, else the string itself.
func castNumeric(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
