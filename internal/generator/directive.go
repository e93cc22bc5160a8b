package generator

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/nvandessel/scengen/internal/constants"
	"github.com/nvandessel/scengen/internal/utils"
)

// CreateDirective asks for Count agents of a type template, all under the
// alias ThisAgent. ExternalIDs binds role names used in the template's
// contracts to aliases of other directives or to fixed agent ids.
type CreateDirective struct {
	ThisAgent    string         `yaml:"this_agent" json:"this_agent"`
	TypeTemplate string         `yaml:"type_template" json:"type_template"`
	Count        any            `yaml:"count" json:"count"`
	ExternalIDs  map[string]any `yaml:"external_ids,omitempty" json:"external_ids,omitempty"`
}

// externalRef is one entry of an external_ids binding: an alias or a fixed id.
type externalRef struct {
	alias string
	id    int
	fixed bool
}

// references returns the bindings of role in declaration order.
func (d CreateDirective) references(role string) ([]externalRef, error) {
	var refs []externalRef
	for _, v := range utils.EnsureList(d.ExternalIDs[role]) {
		switch tv := v.(type) {
		case int:
			refs = append(refs, externalRef{id: tv, fixed: true})
		case int64:
			refs = append(refs, externalRef{id: int(tv), fixed: true})
		case string:
			alias := strings.TrimPrefix(strings.TrimSpace(tv), constants.PlaceholderSentinel)
			if alias == "" {
				return nil, fmt.Errorf("%w: empty alias for role %q of %q", ErrInvalidCreateDirective, role, d.ThisAgent)
			}
			refs = append(refs, externalRef{alias: alias})
		default:
			return nil, fmt.Errorf("%w: role %q of %q must be an alias or integer id, got %T",
				ErrInvalidCreateDirective, role, d.ThisAgent, v)
		}
	}
	return refs, nil
}

// roles returns the external role names in sorted order.
func (d CreateDirective) roles() []string {
	return slices.Sorted(maps.Keys(d.ExternalIDs))
}

// CheckDirectives validates create-directives before anything is generated:
// every directive needs an alias and a template, aliases must be unique and
// unambiguous, and every alias named in external_ids must be declared.
func CheckDirectives(directives []CreateDirective) error {
	declared := make([]string, 0, len(directives))
	for i, d := range directives {
		if strings.TrimSpace(d.ThisAgent) == "" {
			return fmt.Errorf("%w: create[%d] has no this_agent", ErrInvalidCreateDirective, i)
		}
		if strings.TrimSpace(d.TypeTemplate) == "" {
			return fmt.Errorf("%w: %q has no type_template", ErrInvalidCreateDirective, d.ThisAgent)
		}
		if d.Count == nil {
			return fmt.Errorf("%w: %q has no count", ErrInvalidCreateDirective, d.ThisAgent)
		}
		for _, other := range declared {
			if err := checkAliasPair(d.ThisAgent, other); err != nil {
				return err
			}
		}
		declared = append(declared, d.ThisAgent)
	}

	for _, d := range directives {
		for _, role := range d.roles() {
			if role == constants.ThisAgentRole {
				return fmt.Errorf("%w: %q may not bind the reserved role %q", ErrInvalidCreateDirective, d.ThisAgent, role)
			}
			refs, err := d.references(role)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				if !ref.fixed && !slices.Contains(declared, ref.alias) {
					return &MissingExternalIDMatchError{Role: role, Alias: ref.alias, Declared: declared}
				}
			}
		}
	}
	return nil
}

// checkAliasPair rejects equal aliases and aliases where one is the other
// followed by digits, since "Gen" index 1 and "Gen1" serialize alike.
func checkAliasPair(a, b string) error {
	if a == b {
		return &DuplicateAliasError{Alias: a, Other: b}
	}
	if digitSuffix(a, b) || digitSuffix(b, a) {
		return &DuplicateAliasError{Alias: a, Other: b}
	}
	return nil
}

func digitSuffix(long, short string) bool {
	rest, ok := strings.CutPrefix(long, short)
	if !ok || rest == "" {
		return false
	}
	return strings.Trim(rest, "0123456789") == ""
}
