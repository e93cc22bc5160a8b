package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/scengen/internal/store"
)

// isolateHome sets HOME to a temp directory so tests never read a real
// ~/.scengen/config.yaml.
func isolateHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"SCENGEN_LOG_LEVEL", "SCENGEN_LOG_FILE", "SCENGEN_OUTPUT_DIR", "SCENGEN_NUMBER"} {
		t.Setenv(key, "")
	}
}

// runRoot executes the root command with args and returns stdout.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

var runFiles = map[string]string{
	"config.yaml": `defaults:
  base_name: wind
  seed: 11
  trace_file: trace.yaml
base_template: base.yaml
create:
  - this_agent: Wind
    type_template: wind.yaml
    count: range_int(1;3)
`,
	"base.yaml": `Agents:
  - Type: EnergyExchange
    Id: 1
Contracts: []
`,
	"wind.yaml": `Agent:
  Type: RenewablePlantOperator
  Attributes:
    InstalledPowerInMW: range_float(10;20)
    EnergyCarrier: WIND
Contracts:
  - SenderId: //THIS_AGENT
    ReceiverId: 1
    ProductName: Bids
`,
}

func writeRun(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range runFiles {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestSubcommandNames(t *testing.T) {
	tests := []struct {
		name string
		use  string
	}{
		{"version", newVersionCmd().Use},
		{"create", newCreateCmd().Use},
		{"validate", newValidateCmd().Use},
		{"check", newCheckCmd().Use},
		{"history", newHistoryCmd().Use},
		{"mcp-server", newMCPServerCmd().Use},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.HasPrefix(tt.use, tt.name) {
				t.Errorf("Use = %q, want prefix %q", tt.use, tt.name)
			}
		})
	}
}

func TestVersionJSON(t *testing.T) {
	isolateHome(t)
	out, err := runRoot(t, "version", "--json")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("version output is not JSON: %v\n%s", err, out)
	}
	if got["version"] != version {
		t.Errorf("version = %q, want %q", got["version"], version)
	}
}

func TestCreateRequiresConfig(t *testing.T) {
	isolateHome(t)
	if _, err := runRoot(t, "create"); err == nil {
		t.Error("create without --config should fail")
	}
}

func TestCreateCheckHistory(t *testing.T) {
	isolateHome(t)
	dir := writeRun(t)
	outDir := filepath.Join(dir, "out")

	out, err := runRoot(t, "create", "-c", filepath.Join(dir, "config.yaml"), "-d", outDir, "-n", "2")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out, "Created 2/2 scenarios.") {
		t.Errorf("create output = %q", out)
	}
	for _, name := range []string{"wind_0.yaml", "wind_1.yaml"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	out, err = runRoot(t, "check", filepath.Join(outDir, "wind_0.yaml"))
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "WIND") || !strings.Contains(out, "total") {
		t.Errorf("check output = %q", out)
	}

	out, err = runRoot(t, "history", "-d", outDir, "--json")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var runs []store.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, out)
	}
	if len(runs) != 2 || runs[0].Seed != 12 || runs[1].Seed != 11 {
		t.Errorf("history runs = %+v", runs)
	}
}

func TestCheckImplausible(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "empty.yaml")
	doc := "Agents:\n  - Type: PowerPlant\n    Id: 5\n    Attributes:\n      InstalledPowerInMW: 0\n      EnergyCarrier: GAS\nContracts: []\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := runRoot(t, "check", path)
	if !errors.Is(err, errImplausible) {
		t.Errorf("check error = %v, want errImplausible", err)
	}
}

func TestValidateCmd(t *testing.T) {
	isolateHome(t)
	dir := writeRun(t)

	out, err := runRoot(t, "validate", "-c", filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "1 base agent(s), creates Wind") {
		t.Errorf("validate output = %q", out)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("create: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := runRoot(t, "validate", "-c", bad); err == nil {
		t.Error("validate of config without base_template should fail")
	}
}

func TestBadLogLevel(t *testing.T) {
	isolateHome(t)
	dir := writeRun(t)
	if _, err := runRoot(t, "validate", "-c", filepath.Join(dir, "config.yaml"), "--log-level", "loud"); err == nil {
		t.Error("invalid --log-level should fail")
	}
}
