package generator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeTypeTemplate(t *testing.T) {
	tpl, err := DecodeTypeTemplate([]byte(genTemplate))
	if err != nil {
		t.Fatalf("DecodeTypeTemplate() error = %v", err)
	}
	if tpl.Agent.Type() != "PowerPlantOperator" {
		t.Errorf("Agent.Type() = %q", tpl.Agent.Type())
	}
	if !tpl.Agent.ID.IsZero() {
		t.Errorf("template agent id = %v, want unset", tpl.Agent.ID)
	}
	if len(tpl.Contracts) != 1 || tpl.Contracts[0].Sender.Token() != "THIS_AGENT" {
		t.Errorf("Contracts = %+v", tpl.Contracts)
	}
}

func TestDecodeTypeTemplate_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"no agent":         "Contracts: []\n",
		"contract scalar":  "Agent: {Type: A}\nContracts: [1]\n",
		"contract no recv": "Agent: {Type: A}\nContracts:\n  - Sender: //THIS_AGENT\n",
		"invalid yaml":     "Agent: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeTypeTemplate([]byte(doc)); err == nil {
				t.Error("DecodeTypeTemplate() expected error")
			}
		})
	}
}

func TestDirLoader(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "types"), 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "types", "gen.yaml")
	if err := os.WriteFile(path, []byte(genTemplate), 0644); err != nil {
		t.Fatal(err)
	}

	l := NewDirLoader(root)
	first, err := l.Load("types/gen.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	first.Agent.Attributes["Power"] = 1

	// Cached: the file is gone but Load still succeeds with a fresh copy
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	second, err := l.Load("types/gen.yaml")
	if err != nil {
		t.Fatalf("cached Load() error = %v", err)
	}
	if second.Agent.Attributes["Power"] != "range_int(10;20)" {
		t.Errorf("cached template was mutated: Power = %v", second.Agent.Attributes["Power"])
	}

	if _, err := l.Load("types/missing.yaml"); err == nil {
		t.Error("Load() of missing file expected error")
	}
}
