package scenario

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/scengen/internal/constants"
)

// ErrInvalidIdentifier is returned when an Id or contract endpoint holds
// something that is neither an integer nor a placeholder.
var ErrInvalidIdentifier = errors.New("invalid identifier")

type idKind uint8

const (
	kindNone idKind = iota
	kindConcrete
	kindPlaceholder
)

// Identifier references an agent. It is either a concrete integer or a
// placeholder that the resolver later replaces with a unique integer.
// Placeholders are written with the "//" sentinel only when serialized.
//
// The zero value is an unset identifier.
type Identifier struct {
	kind  idKind
	value int

	// Placeholder parts. Placeholders built by the instantiator know their
	// alias and index; placeholders read from YAML only know their token.
	alias  string
	index  int
	parsed bool
}

// Concrete returns a resolved identifier.
func Concrete(v int) Identifier {
	return Identifier{kind: kindConcrete, value: v}
}

// Placeholder returns an unresolved identifier for the index-th instance of
// alias. A negative index means the alias has a single instance and no
// numeric suffix.
func Placeholder(alias string, index int) Identifier {
	if index < 0 {
		index = -1
	}
	return Identifier{kind: kindPlaceholder, alias: alias, index: index}
}

// ParseIdentifier converts a decoded YAML value into an Identifier. Integers
// and integral floats become concrete ids, as do strings holding an integer.
// Strings starting with the sentinel become placeholders.
func ParseIdentifier(v any) (Identifier, error) {
	switch tv := v.(type) {
	case int:
		return Concrete(tv), nil
	case int64:
		return Concrete(int(tv)), nil
	case uint64:
		if tv <= math.MaxInt64 {
			return Concrete(int(tv)), nil
		}
	case float64:
		// 2^63 is the first float past math.MaxInt64.
		if tv == math.Trunc(tv) && tv >= math.MinInt64 && tv < 1<<63 {
			return Concrete(int(tv)), nil
		}
	case string:
		if token, ok := strings.CutPrefix(tv, constants.PlaceholderSentinel); ok && token != "" {
			return Identifier{kind: kindPlaceholder, alias: token, index: -1, parsed: true}, nil
		}
		if n, err := strconv.Atoi(strings.TrimSpace(tv)); err == nil {
			return Concrete(n), nil
		}
	case Identifier:
		return tv, nil
	}
	return Identifier{}, fmt.Errorf("%w: %v (%T)", ErrInvalidIdentifier, v, v)
}

// IsZero reports whether the identifier is unset.
func (id Identifier) IsZero() bool { return id.kind == kindNone }

// IsPlaceholder reports whether the identifier still needs resolution.
func (id Identifier) IsPlaceholder() bool { return id.kind == kindPlaceholder }

// Value returns the concrete id. ok is false for placeholders and unset ids.
func (id Identifier) Value() (v int, ok bool) {
	return id.value, id.kind == kindConcrete
}

// Token returns the placeholder text after the sentinel, e.g. "Gen0".
// It is empty for concrete ids.
func (id Identifier) Token() string {
	if id.kind != kindPlaceholder {
		return ""
	}
	if id.index < 0 {
		return id.alias
	}
	return id.alias + strconv.Itoa(id.index)
}

// String returns the serialized form: the integer, or sentinel plus token.
func (id Identifier) String() string {
	switch id.kind {
	case kindConcrete:
		return strconv.Itoa(id.value)
	case kindPlaceholder:
		return constants.PlaceholderSentinel + id.Token()
	}
	return ""
}

// Matches reports whether this identifier is a placeholder created for
// alias. Placeholders read from YAML match when their token is alias
// followed by an optional run of digits.
func (id Identifier) Matches(alias string) bool {
	if id.kind != kindPlaceholder {
		return false
	}
	if !id.parsed {
		return id.alias == alias
	}
	return aliasPattern(alias).MatchString(id.alias)
}

func aliasPattern(alias string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(alias) + `\d*$`)
}

// MarshalYAML writes concrete ids as integers and placeholders as strings.
func (id Identifier) MarshalYAML() (any, error) {
	switch id.kind {
	case kindConcrete:
		return id.value, nil
	case kindPlaceholder:
		return id.String(), nil
	}
	return nil, nil
}

// UnmarshalYAML accepts an integer or a placeholder string.
func (id *Identifier) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseIdentifier(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*id = parsed
	return nil
}
