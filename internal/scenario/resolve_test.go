package scenario

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIDPool_Allocate(t *testing.T) {
	tests := []struct {
		name string
		pool []int
		want []int
	}{
		{"empty pool starts at one", nil, []int{1, 2, 3}},
		{"continues past max", []int{3, 1, 7}, []int{8, 9, 10}},
		{"single id", []int{5}, []int{6, 7}},
		{"negative ids", []int{-4}, []int{-3, -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewIDPool(tt.pool...)
			for _, want := range tt.want {
				if p.Contains(want) {
					t.Fatalf("pool already holds %d before Allocate", want)
				}
				got := p.Allocate()
				if got != want {
					t.Errorf("Allocate() = %d, want %d", got, want)
				}
				if !p.Contains(got) {
					t.Errorf("Allocate() did not add %d to the pool", got)
				}
			}
			if p.Len() != len(tt.pool)+len(tt.want) {
				t.Errorf("Len() = %d, want %d", p.Len(), len(tt.pool)+len(tt.want))
			}
		})
	}
}

func TestCollectIntegerIDs_IgnoresPlaceholders(t *testing.T) {
	s := &Scenario{Agents: []*Agent{
		{ID: Concrete(4)},
		{ID: Placeholder("A", 0)},
		{ID: Concrete(2)},
		{},
	}}
	p := CollectIntegerIDs(s)
	if p.Len() != 2 || !p.Contains(4) || !p.Contains(2) {
		t.Errorf("pool = %v, want {2, 4}", p.used)
	}
}

func TestResolve_AvoidsExistingIDs(t *testing.T) {
	s := &Scenario{
		Agents: []*Agent{
			{ID: Placeholder("A", 0)},
			{ID: Concrete(5)},
			{ID: Placeholder("A", 1)},
		},
		Contracts: []*Contract{
			NewContract(Placeholder("A", 0), Concrete(5), nil),
			NewContract(Concrete(5), Placeholder("A", 1), nil),
		},
	}

	mapping, err := Resolve(s, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if diff := cmp.Diff(map[string]int{"//A0": 6, "//A1": 7}, mapping); diff != "" {
		t.Errorf("mapping mismatch (-want +got):\n%s", diff)
	}
	wantIDs := []int{6, 5, 7}
	for i, a := range s.Agents {
		if v, ok := a.ID.Value(); !ok || v != wantIDs[i] {
			t.Errorf("Agents[%d].ID = %v, want %d", i, a.ID, wantIDs[i])
		}
	}
	if v, _ := s.Contracts[0].Sender.Value(); v != 6 {
		t.Errorf("Contracts[0].Sender = %v, want 6", s.Contracts[0].Sender)
	}
	if v, _ := s.Contracts[1].Receiver.Value(); v != 7 {
		t.Errorf("Contracts[1].Receiver = %v, want 7", s.Contracts[1].Receiver)
	}
	if left := Placeholders(s); len(left) != 0 {
		t.Errorf("placeholders left after Resolve: %v", left)
	}
}

func TestResolve_SamePlaceholderSameID(t *testing.T) {
	parsed, _ := ParseIdentifier("//Gen")
	s := &Scenario{
		Agents: []*Agent{
			{ID: Placeholder("Gen", -1)},
			{ID: parsed},
		},
	}
	if _, err := Resolve(s, nil); err != nil {
		t.Fatal(err)
	}
	a, _ := s.Agents[0].ID.Value()
	b, _ := s.Agents[1].ID.Value()
	if a != b {
		t.Errorf("identical placeholders resolved to %d and %d", a, b)
	}
}

func TestResolve_DistinctPlaceholdersDistinctIDs(t *testing.T) {
	s := &Scenario{}
	for i := range 50 {
		s.Agents = append(s.Agents, &Agent{ID: Placeholder("A", i)})
	}
	if _, err := Resolve(s, nil); err != nil {
		t.Fatal(err)
	}
	seen := map[int]bool{}
	for _, a := range s.Agents {
		v, ok := a.ID.Value()
		if !ok || seen[v] {
			t.Fatalf("duplicate or unresolved id %v", a.ID)
		}
		seen[v] = true
	}
}

func TestResolve_ContractPassthroughField(t *testing.T) {
	s := &Scenario{
		Agents: []*Agent{{ID: Placeholder("Trader", -1)}},
		Contracts: []*Contract{
			NewContract(Placeholder("Trader", -1), Concrete(1), map[string]any{
				"ForecastProvider": "//Trader",
				"ProductName":      "Power",
			}),
		},
	}
	if _, err := Resolve(s, nil); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := s.Contracts[0].Extra["ForecastProvider"]; got != 1 {
		t.Errorf("ForecastProvider = %v, want 1", got)
	}
	if got := s.Contracts[0].Extra["ProductName"]; got != "Power" {
		t.Errorf("ProductName = %v, want Power", got)
	}
}

func TestResolve_Unresolved(t *testing.T) {
	tests := []struct {
		name     string
		contract *Contract
		field    string
		ident    string
	}{
		{
			name:     "sender",
			contract: NewContract(Placeholder("Ghost", -1), Concrete(1), nil),
			field:    "SenderId",
			ident:    "//Ghost",
		},
		{
			name:     "receiver",
			contract: NewContract(Placeholder("A", -1), Placeholder("Ghost", 2), nil),
			field:    "ReceiverId",
			ident:    "//Ghost2",
		},
		{
			name:     "passthrough field",
			contract: NewContract(Placeholder("A", -1), Concrete(1), map[string]any{"Helper": "//Nobody"}),
			field:    "Helper",
			ident:    "//Nobody",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scenario{
				Agents:    []*Agent{{ID: Placeholder("A", -1)}},
				Contracts: []*Contract{tt.contract},
			}
			_, err := Resolve(s, nil)
			if !errors.Is(err, ErrUnresolvedReference) {
				t.Fatalf("Resolve() error = %v, want ErrUnresolvedReference", err)
			}
			var ue *UnresolvedReferenceError
			if !errors.As(err, &ue) {
				t.Fatalf("error is %T, want *UnresolvedReferenceError", err)
			}
			if ue.Field != tt.field || ue.Identifier != tt.ident || ue.Contract != 0 {
				t.Errorf("error = %+v, want field %q identifier %q", ue, tt.field, tt.ident)
			}
		})
	}
}
