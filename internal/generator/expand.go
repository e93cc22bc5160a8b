package generator

import (
	"github.com/nvandessel/scengen/internal/constants"
	"github.com/nvandessel/scengen/internal/scenario"
)

// checkStaticContracts rejects templates holding a contract with two fixed
// endpoints.
func checkStaticContracts(ref string, tpl *TypeTemplate) error {
	for _, c := range tpl.Contracts {
		if !c.Sender.IsPlaceholder() && !c.Receiver.IsPlaceholder() {
			return &StaticContractError{Template: ref, Sender: c.Sender.String(), Receiver: c.Receiver.String()}
		}
	}
	return nil
}

// roleBindings maps each role a directive's contracts may reference to the
// identifiers it stands for: THIS_AGENT to the agents created under the
// directive's alias, and every external_ids role to the agents of the bound
// aliases or to the bound fixed ids.
func roleBindings(d CreateDirective, agents []*scenario.Agent) (map[string][]scenario.Identifier, error) {
	bindings := map[string][]scenario.Identifier{
		constants.ThisAgentRole: matchingIDs(agents, []externalRef{{alias: d.ThisAgent}}),
	}
	for _, role := range d.roles() {
		refs, err := d.references(role)
		if err != nil {
			return nil, err
		}
		bindings[role] = matchingIDs(agents, refs)
	}
	return bindings, nil
}

// matchingIDs returns fixed ids as given and, for each alias, the ids of
// the agents created under it, in agent order.
func matchingIDs(agents []*scenario.Agent, refs []externalRef) []scenario.Identifier {
	var ids []scenario.Identifier
	for _, ref := range refs {
		if ref.fixed {
			ids = append(ids, scenario.Concrete(ref.id))
			continue
		}
		for _, a := range agents {
			if a.ID.Matches(ref.alias) {
				ids = append(ids, a.ID)
			}
		}
	}
	return ids
}

// candidates returns what an endpoint expands to: the bound identifiers
// when it names a role, else the endpoint itself.
func candidates(endpoint scenario.Identifier, bindings map[string][]scenario.Identifier) []scenario.Identifier {
	if endpoint.IsPlaceholder() {
		if ids, ok := bindings[endpoint.Token()]; ok {
			return ids
		}
	}
	return []scenario.Identifier{endpoint}
}

// ExpandContracts materializes tpl's contracts for directive d: one copy per
// pair in the cross product of sender and receiver candidates. agents must
// already hold every instantiated agent of the scenario.
func ExpandContracts(d CreateDirective, tpl *TypeTemplate, agents []*scenario.Agent) ([]*scenario.Contract, error) {
	if err := checkStaticContracts(d.TypeTemplate, tpl); err != nil {
		return nil, err
	}
	if len(tpl.Contracts) == 0 {
		return nil, nil
	}

	bindings, err := roleBindings(d, agents)
	if err != nil {
		return nil, err
	}

	var out []*scenario.Contract
	for _, c := range tpl.Contracts {
		for _, sender := range candidates(c.Sender, bindings) {
			for _, receiver := range candidates(c.Receiver, bindings) {
				out = append(out, c.WithEndpoints(sender, receiver))
			}
		}
	}
	return out, nil
}
