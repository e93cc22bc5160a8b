package generator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidAgentCount is returned when a count does not digest to a
	// non-negative number.
	ErrInvalidAgentCount = errors.New("invalid agent count")

	// ErrStaticContract is returned for a contract template whose sender and
	// receiver are both fixed.
	ErrStaticContract = errors.New("static contract")

	// ErrMissingExternalIDMatch is returned when an external_ids alias names
	// no create-directive.
	ErrMissingExternalIDMatch = errors.New("missing external id match")

	// ErrDuplicateAlias is returned when two create-directives would produce
	// the same placeholder identifiers.
	ErrDuplicateAlias = errors.New("duplicate alias")

	// ErrInvalidCreateDirective is returned for create-directives with
	// missing or malformed fields.
	ErrInvalidCreateDirective = errors.New("invalid create directive")
)

// InvalidAgentCountError carries the count that could not be used.
type InvalidAgentCountError struct {
	Alias string
	Count any
	// Limit is set when the count exceeds it.
	Limit int
}

func (e *InvalidAgentCountError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("agent count %v for %q exceeds the limit of %d", e.Count, e.Alias, e.Limit)
	}
	return fmt.Sprintf("agent count %v (%T) for %q is not a non-negative number", e.Count, e.Count, e.Alias)
}

func (e *InvalidAgentCountError) Unwrap() error { return ErrInvalidAgentCount }

// StaticContractError names the template and its fixed endpoints.
type StaticContractError struct {
	Template string
	Sender   string
	Receiver string
}

func (e *StaticContractError) Error() string {
	return fmt.Sprintf("contract in %q between %s and %s has no dynamic endpoint; use a placeholder for sender or receiver",
		e.Template, e.Sender, e.Receiver)
}

func (e *StaticContractError) Unwrap() error { return ErrStaticContract }

// MissingExternalIDMatchError names the unmatched alias and the aliases
// that are declared.
type MissingExternalIDMatchError struct {
	Role     string
	Alias    string
	Declared []string
}

func (e *MissingExternalIDMatchError) Error() string {
	return fmt.Sprintf("external id %q for role %q matches no this_agent alias (declared: %s)",
		e.Alias, e.Role, strings.Join(e.Declared, ", "))
}

func (e *MissingExternalIDMatchError) Unwrap() error { return ErrMissingExternalIDMatch }

// DuplicateAliasError names the two aliases that collide.
type DuplicateAliasError struct {
	Alias string
	Other string
}

func (e *DuplicateAliasError) Error() string {
	if e.Alias == e.Other {
		return fmt.Sprintf("alias %q is used by more than one create directive", e.Alias)
	}
	return fmt.Sprintf("alias %q is ambiguous with %q: indexed placeholders of one can equal the other", e.Alias, e.Other)
}

func (e *DuplicateAliasError) Unwrap() error { return ErrDuplicateAlias }
