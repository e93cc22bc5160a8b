package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/nvandessel/scengen/internal/constants"
	"github.com/nvandessel/scengen/internal/logging"
)

// ErrUnresolvedReference is returned when a contract references a
// placeholder that no agent carries.
var ErrUnresolvedReference = errors.New("unresolved reference")

// UnresolvedReferenceError names the contract and placeholder that could not
// be resolved.
type UnresolvedReferenceError struct {
	Contract   int
	Field      string
	Identifier string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("could not resolve identifier %q in field %q of contract #%d: no agent carries it",
		e.Identifier, e.Field, e.Contract)
}

func (e *UnresolvedReferenceError) Unwrap() error { return ErrUnresolvedReference }

// Resolve replaces every placeholder in s with a concrete id. Agents are
// visited in order: the first occurrence of a placeholder mints a new id
// past every concrete id already present, later occurrences reuse it.
// Contract endpoints and placeholder strings in other contract fields are
// then rewritten through the same mapping.
//
// The returned map goes from serialized placeholder to its concrete id.
func Resolve(s *Scenario, logger *slog.Logger) (map[string]int, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	pool := CollectIntegerIDs(s)
	resolved := make(map[string]int)

	for _, a := range s.Agents {
		if !a.ID.IsPlaceholder() {
			continue
		}
		key := a.ID.String()
		id, ok := resolved[key]
		if !ok {
			id = pool.Allocate()
			resolved[key] = id
			logger.Log(context.Background(), logging.LevelTrace, "resolved agent id", "placeholder", key, "id", id)
		}
		a.ID = Concrete(id)
	}

	for i, c := range s.Contracts {
		var err error
		if c.Sender, err = resolveEndpoint(resolved, c.Sender, i, c.SenderKey()); err != nil {
			return nil, err
		}
		if c.Receiver, err = resolveEndpoint(resolved, c.Receiver, i, c.ReceiverKey()); err != nil {
			return nil, err
		}
		for _, k := range slices.Sorted(maps.Keys(c.Extra)) {
			str, ok := c.Extra[k].(string)
			if !ok || !strings.HasPrefix(str, constants.PlaceholderSentinel) {
				continue
			}
			id, ok := resolved[str]
			if !ok {
				return nil, &UnresolvedReferenceError{Contract: i, Field: k, Identifier: str}
			}
			c.Extra[k] = id
		}
	}

	logger.Debug("resolved identifiers", "placeholders", len(resolved), "agents", len(s.Agents), "contracts", len(s.Contracts))
	return resolved, nil
}

func resolveEndpoint(resolved map[string]int, id Identifier, contract int, field string) (Identifier, error) {
	if !id.IsPlaceholder() {
		return id, nil
	}
	v, ok := resolved[id.String()]
	if !ok {
		return id, &UnresolvedReferenceError{Contract: contract, Field: field, Identifier: id.String()}
	}
	return Concrete(v), nil
}

// Placeholders returns the serialized placeholders still present in agent
// ids and contract endpoints, in tree order.
func Placeholders(s *Scenario) []string {
	var out []string
	for _, a := range s.Agents {
		if a.ID.IsPlaceholder() {
			out = append(out, a.ID.String())
		}
	}
	for _, c := range s.Contracts {
		for _, id := range []Identifier{c.Sender, c.Receiver} {
			if id.IsPlaceholder() {
				out = append(out, id.String())
			}
		}
	}
	return out
}
