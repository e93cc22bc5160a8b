// Package scenario models a simulation scenario: a tree of agents and the
// contracts between them, plus any passthrough keys of the base template.
//
// Identifiers are held as a tagged union (see Identifier) while the tree is
// built and are converted to the "//"-prefixed string form only when the
// tree is read from or written to YAML.
package scenario

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/scengen/internal/utils"
)

// Keys of the scenario document.
const (
	KeyAgents     = "Agents"
	KeyContracts  = "Contracts"
	KeyID         = "Id"
	KeyType       = "Type"
	KeyAttributes = "Attributes"
)

// Scenario is a scenario tree.
type Scenario struct {
	Agents    []*Agent
	Contracts []*Contract

	// Extra holds every other top-level key, written back unchanged.
	Extra map[string]any
}

// FromMap builds a Scenario from a decoded YAML document.
func FromMap(m map[string]any) (*Scenario, error) {
	s := &Scenario{Extra: map[string]any{}}
	for k, v := range m {
		switch k {
		case KeyAgents:
			for i, item := range utils.EnsureList(v) {
				am := utils.AsMap(item)
				if am == nil {
					return nil, fmt.Errorf("%s[%d]: expected a mapping, got %T", KeyAgents, i, item)
				}
				a, err := AgentFromMap(am)
				if err != nil {
					return nil, fmt.Errorf("%s[%d]: %w", KeyAgents, i, err)
				}
				s.Agents = append(s.Agents, a)
			}
		case KeyContracts:
			for i, item := range utils.EnsureList(v) {
				cm := utils.AsMap(item)
				if cm == nil {
					return nil, fmt.Errorf("%s[%d]: expected a mapping, got %T", KeyContracts, i, item)
				}
				c, err := ContractFromMap(cm)
				if err != nil {
					return nil, fmt.Errorf("%s[%d]: %w", KeyContracts, i, err)
				}
				s.Contracts = append(s.Contracts, c)
			}
		default:
			s.Extra[k] = v
		}
	}
	return s, nil
}

// Clone returns a deep copy sharing no maps or slices with s.
func (s *Scenario) Clone() *Scenario {
	out := &Scenario{
		Extra:     utils.DeepCopyMap(s.Extra),
		Agents:    make([]*Agent, len(s.Agents)),
		Contracts: make([]*Contract, len(s.Contracts)),
	}
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	for i, a := range s.Agents {
		out.Agents[i] = a.Clone()
	}
	for i, c := range s.Contracts {
		out.Contracts[i] = c.Clone()
	}
	return out
}

// MarshalYAML writes passthrough keys in sorted order followed by Agents and
// Contracts. Both collections are always present.
func (s *Scenario) MarshalYAML() (any, error) {
	var pairs []pair
	for _, k := range slices.Sorted(maps.Keys(s.Extra)) {
		pairs = append(pairs, pair{k, s.Extra[k]})
	}
	agents := s.Agents
	if agents == nil {
		agents = []*Agent{}
	}
	contracts := s.Contracts
	if contracts == nil {
		contracts = []*Contract{}
	}
	pairs = append(pairs, pair{KeyAgents, agents}, pair{KeyContracts, contracts})
	return mapping(pairs)
}

// UnmarshalYAML decodes a scenario document.
func (s *Scenario) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromMap(raw)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

// Agent is one simulation participant.
type Agent struct {
	ID         Identifier
	Attributes map[string]any

	// Extra holds Type and any other agent-level keys.
	Extra map[string]any
}

// AgentFromMap builds an Agent from a decoded mapping. A missing Id leaves
// ID unset; templates rely on that.
func AgentFromMap(m map[string]any) (*Agent, error) {
	a := &Agent{Extra: map[string]any{}}
	for k, v := range m {
		switch k {
		case KeyID:
			id, err := ParseIdentifier(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", KeyID, err)
			}
			a.ID = id
		case KeyAttributes:
			if v == nil {
				continue
			}
			attrs := utils.AsMap(v)
			if attrs == nil {
				return nil, fmt.Errorf("%s: expected a mapping, got %T", KeyAttributes, v)
			}
			a.Attributes = attrs
		default:
			a.Extra[k] = v
		}
	}
	return a, nil
}

// Type returns the agent type, or "" if unset.
func (a *Agent) Type() string {
	return utils.GetString(a.Extra, KeyType, "")
}

// Clone returns a deep copy of a.
func (a *Agent) Clone() *Agent {
	out := &Agent{
		ID:         a.ID,
		Attributes: utils.DeepCopyMap(a.Attributes),
		Extra:      utils.DeepCopyMap(a.Extra),
	}
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	return out
}

// MarshalYAML writes Type, Id, other keys, then Attributes.
func (a *Agent) MarshalYAML() (any, error) {
	var pairs []pair
	if t, ok := a.Extra[KeyType]; ok {
		pairs = append(pairs, pair{KeyType, t})
	}
	if !a.ID.IsZero() {
		pairs = append(pairs, pair{KeyID, a.ID})
	}
	for _, k := range slices.Sorted(maps.Keys(a.Extra)) {
		if k == KeyType {
			continue
		}
		pairs = append(pairs, pair{k, a.Extra[k]})
	}
	if a.Attributes != nil {
		pairs = append(pairs, pair{KeyAttributes, a.Attributes})
	}
	return mapping(pairs)
}

// UnmarshalYAML decodes an agent mapping.
func (a *Agent) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := AgentFromMap(raw)
	if err != nil {
		return err
	}
	*a = *parsed
	return nil
}

// Contract is a recurring relationship from a sender agent to a receiver agent.
type Contract struct {
	Sender   Identifier
	Receiver Identifier

	// Extra holds every other contract key (product name, schedule, ...).
	Extra map[string]any

	senderKey   string
	receiverKey string
}

// Endpoint key spellings, tried in order and case-insensitively.
var (
	senderKeys   = []string{"SenderId", "Sender"}
	receiverKeys = []string{"ReceiverId", "Receiver"}
)

// NewContract returns a contract using the SenderId/ReceiverId key names.
func NewContract(sender, receiver Identifier, extra map[string]any) *Contract {
	if extra == nil {
		extra = map[string]any{}
	}
	return &Contract{
		Sender:      sender,
		Receiver:    receiver,
		Extra:       extra,
		senderKey:   senderKeys[0],
		receiverKey: receiverKeys[0],
	}
}

// ContractFromMap builds a Contract from a decoded mapping. Both endpoints
// are required; the key spelling found in the input is kept for output.
func ContractFromMap(m map[string]any) (*Contract, error) {
	c := &Contract{Extra: make(map[string]any, len(m))}
	maps.Copy(c.Extra, m)

	var err error
	if c.senderKey, c.Sender, err = takeEndpoint(c.Extra, senderKeys); err != nil {
		return nil, err
	}
	if c.receiverKey, c.Receiver, err = takeEndpoint(c.Extra, receiverKeys); err != nil {
		return nil, err
	}
	return c, nil
}

func takeEndpoint(m map[string]any, keys []string) (string, Identifier, error) {
	for _, want := range keys {
		key, v, ok := utils.LookupFold(m, want)
		if !ok {
			continue
		}
		id, err := ParseIdentifier(v)
		if err != nil {
			return "", Identifier{}, fmt.Errorf("%s: %w", key, err)
		}
		delete(m, key)
		return key, id, nil
	}
	return "", Identifier{}, fmt.Errorf("%w: missing %s", ErrInvalidIdentifier, strings.Join(keys, " or "))
}

// SenderKey returns the key the sender is written under.
func (c *Contract) SenderKey() string { return c.senderKey }

// ReceiverKey returns the key the receiver is written under.
func (c *Contract) ReceiverKey() string { return c.receiverKey }

// Clone returns a deep copy of c.
func (c *Contract) Clone() *Contract {
	out := *c
	out.Extra = utils.DeepCopyMap(c.Extra)
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	return &out
}

// WithEndpoints returns a copy of c bound to sender and receiver.
func (c *Contract) WithEndpoints(sender, receiver Identifier) *Contract {
	out := c.Clone()
	out.Sender = sender
	out.Receiver = receiver
	return out
}

// MarshalYAML writes the endpoints first, then the remaining keys sorted.
func (c *Contract) MarshalYAML() (any, error) {
	sk, rk := c.senderKey, c.receiverKey
	if sk == "" {
		sk = senderKeys[0]
	}
	if rk == "" {
		rk = receiverKeys[0]
	}
	pairs := []pair{{sk, c.Sender}, {rk, c.Receiver}}
	for _, k := range slices.Sorted(maps.Keys(c.Extra)) {
		pairs = append(pairs, pair{k, c.Extra[k]})
	}
	return mapping(pairs)
}

// UnmarshalYAML decodes a contract mapping.
func (c *Contract) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ContractFromMap(raw)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

type pair struct {
	key   string
	value any
}

// mapping encodes pairs into an ordered YAML mapping node.
func mapping(pairs []pair) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range pairs {
		var v yaml.Node
		if err := v.Encode(p.value); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", p.key, err)
		}
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.key},
			&v,
		)
	}
	return n, nil
}
