package scenario

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

const sampleScenario = `
Schema:
    AgentTypes: {}
GeneralProperties:
    RunId: 1
Agents:
    - Type: EnergyExchange
      Id: 1
      Attributes:
          DistributionMethod: SAME_SHARES
    - Type: PowerPlantOperator
      Id: //Gen0
      Attributes:
          Power: 12
          YieldProfile: ./timeseries/wind.csv
Contracts:
    - SenderId: //Gen0
      ReceiverId: 1
      ProductName: Power
      FirstDeliveryTime: -25
`

func TestDecode(t *testing.T) {
	s, err := Decode([]byte(sampleScenario))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if len(s.Agents) != 2 || len(s.Contracts) != 1 {
		t.Fatalf("got %d agents, %d contracts; want 2, 1", len(s.Agents), len(s.Contracts))
	}
	if got := s.Agents[1].Type(); got != "PowerPlantOperator" {
		t.Errorf("Agents[1].Type() = %q", got)
	}
	if !s.Agents[1].ID.IsPlaceholder() || s.Agents[1].ID.String() != "//Gen0" {
		t.Errorf("Agents[1].ID = %v, want //Gen0", s.Agents[1].ID)
	}

	c := s.Contracts[0]
	if c.SenderKey() != "SenderId" || c.ReceiverKey() != "ReceiverId" {
		t.Errorf("keys = %q, %q", c.SenderKey(), c.ReceiverKey())
	}
	if _, ok := c.Extra["SenderId"]; ok {
		t.Error("endpoint keys should not remain in Extra")
	}
	wantExtra := map[string]any{"ProductName": "Power", "FirstDeliveryTime": -25}
	if diff := cmp.Diff(wantExtra, c.Extra); diff != "" {
		t.Errorf("contract Extra mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s.Extra["GeneralProperties"]; !ok {
		t.Error("passthrough key GeneralProperties lost")
	}
}

func TestDecode_Empty(t *testing.T) {
	s, err := Decode([]byte("Agents:\nContracts: []\n"))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(s.Agents) != 0 || len(s.Contracts) != 0 {
		t.Errorf("want empty collections, got %d/%d", len(s.Agents), len(s.Contracts))
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"agent not a mapping", "Agents: [5]\n"},
		{"bad agent id", "Agents:\n  - Id: Gen\n"},
		{"contract without receiver", "Contracts:\n  - SenderId: 1\n"},
		{"contract with bad sender", "Contracts:\n  - SenderId: x\n    ReceiverId: 1\n"},
		{"attributes not a mapping", "Agents:\n  - Id: 1\n    Attributes: [1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.doc)); err == nil {
				t.Error("Decode() expected error")
			}
		})
	}
}

func TestContractFromMap_KeySpellings(t *testing.T) {
	tests := []struct {
		name   string
		in     map[string]any
		sender string
		recv   string
	}{
		{"SenderId", map[string]any{"SenderId": 1, "ReceiverId": 2}, "SenderId", "ReceiverId"},
		{"Sender", map[string]any{"Sender": "//THIS_AGENT", "Receiver": 7}, "Sender", "Receiver"},
		{"lower case", map[string]any{"senderid": 1, "receiverid": 2}, "senderid", "receiverid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ContractFromMap(tt.in)
			if err != nil {
				t.Fatalf("ContractFromMap() error = %v", err)
			}
			if c.SenderKey() != tt.sender || c.ReceiverKey() != tt.recv {
				t.Errorf("keys = %q/%q, want %q/%q", c.SenderKey(), c.ReceiverKey(), tt.sender, tt.recv)
			}
			if len(tt.in) != 2 {
				t.Error("input map was mutated")
			}
		})
	}

	if _, err := ContractFromMap(map[string]any{"ReceiverId": 1}); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("missing sender error = %v, want ErrInvalidIdentifier", err)
	}
}

func TestMarshal_Order(t *testing.T) {
	s, err := Decode([]byte(sampleScenario))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	text := string(out)

	order := []string{"GeneralProperties:", "Schema:", "Agents:", "Contracts:"}
	last := -1
	for _, key := range order {
		i := strings.Index(text, key)
		if i < 0 {
			t.Fatalf("output lacks %s:\n%s", key, text)
		}
		if i < last {
			t.Errorf("%s out of order:\n%s", key, text)
		}
		last = i
	}

	// Agent keys: Type, Id, Attributes
	typeAt := strings.Index(text, "Type: PowerPlantOperator")
	idAt := strings.Index(text, "Id: //Gen0")
	if typeAt < 0 || idAt < typeAt {
		t.Errorf("agent keys out of order:\n%s", text)
	}
	if !strings.Contains(text, "SenderId: //Gen0") {
		t.Errorf("contract sender not written under its input key:\n%s", text)
	}
}

func TestMarshal_DecodeRoundTrip(t *testing.T) {
	s, err := Decode([]byte(sampleScenario))
	if err != nil {
		t.Fatal(err)
	}
	first, err := Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Decode(first)
	if err != nil {
		t.Fatalf("Decode(Marshal()) error = %v", err)
	}
	second, err := Marshal(back)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Errorf("output not stable (-first +second):\n%s", diff)
	}
}

func TestMarshal_EmptyCollections(t *testing.T) {
	out, err := Marshal(&Scenario{})
	if err != nil {
		t.Fatal(err)
	}
	if want := "Agents: []\nContracts: []\n"; string(out) != want {
		t.Errorf("Marshal() = %q, want %q", out, want)
	}
}

func TestClone_Independent(t *testing.T) {
	s, err := Decode([]byte(sampleScenario))
	if err != nil {
		t.Fatal(err)
	}
	cp := s.Clone()

	cp.Agents[1].Attributes["Power"] = 99
	cp.Agents[1].ID = Concrete(50)
	cp.Contracts[0].Extra["ProductName"] = "Changed"
	cp.Extra["GeneralProperties"].(map[string]any)["RunId"] = 2

	if s.Agents[1].Attributes["Power"] != 12 {
		t.Error("agent attributes shared with clone")
	}
	if !s.Agents[1].ID.IsPlaceholder() {
		t.Error("agent id shared with clone")
	}
	if s.Contracts[0].Extra["ProductName"] != "Power" {
		t.Error("contract extra shared with clone")
	}
	if s.Extra["GeneralProperties"].(map[string]any)["RunId"] != 1 {
		t.Error("top-level extra shared with clone")
	}
}

func TestAgent_YAMLWithoutID(t *testing.T) {
	var a Agent
	if err := yaml.Unmarshal([]byte("Type: Gen\nAttributes:\n  Power: 5\n"), &a); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !a.ID.IsZero() {
		t.Errorf("ID = %v, want unset", a.ID)
	}
	out, err := yaml.Marshal(&a)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "Id:") {
		t.Errorf("unset Id should be omitted:\n%s", out)
	}
}

func TestContract_WithEndpoints(t *testing.T) {
	tpl, err := ContractFromMap(map[string]any{"Sender": "//THIS_AGENT", "Receiver": 7, "ProductName": "Power"})
	if err != nil {
		t.Fatal(err)
	}
	c := tpl.WithEndpoints(Placeholder("Gen", 0), Concrete(7))
	c.Extra["ProductName"] = "Other"

	if tpl.Extra["ProductName"] != "Power" {
		t.Error("WithEndpoints shares Extra with template")
	}
	if c.Sender.String() != "//Gen0" || c.SenderKey() != "Sender" {
		t.Errorf("Sender = %v under %q", c.Sender, c.SenderKey())
	}
}
