package digest

import (
	"errors"
	"fmt"

	"github.com/nvandessel/scengen/internal/constants"
)

var (
	// ErrInvalidRange is returned for malformed, unordered, or disallowed
	// negative range bounds.
	ErrInvalidRange = errors.New("invalid range")

	// ErrDeprecatedDirective is returned when the legacy range(...) syntax is used.
	ErrDeprecatedDirective = errors.New("deprecated directive")

	// ErrInvalidDirective is returned for choose/pickfile directives that
	// cannot produce a value.
	ErrInvalidDirective = errors.New("invalid directive")
)

// RangeError describes a rejected range_int or range_float directive.
type RangeError struct {
	Input         string
	Reason        string
	AllowNegative bool
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range input %q: %s; provide '%s(minimum_integer;maximum_integer)' or '%s(minimum_float;maximum_float)' (negative values allowed: %t)",
		e.Input, e.Reason, constants.DirectiveRangeInt, constants.DirectiveRangeFloat, e.AllowNegative)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// DeprecatedDirectiveError points users of range(...) at its replacements.
type DeprecatedDirectiveError struct {
	Input string
}

func (e *DeprecatedDirectiveError) Error() string {
	return fmt.Sprintf("found deprecated directive in %q, use '%s' or '%s' instead",
		e.Input, constants.DirectiveRangeInt, constants.DirectiveRangeFloat)
}

func (e *DeprecatedDirectiveError) Unwrap() error { return ErrDeprecatedDirective }

// DirectiveError describes a choose or pickfile directive without candidates.
type DirectiveError struct {
	Input  string
	Reason string
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("invalid directive %q: %s", e.Input, e.Reason)
}

func (e *DirectiveError) Unwrap() error { return ErrInvalidDirective }
