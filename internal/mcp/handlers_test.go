package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/scengen/internal/ratelimit"
)

var runFiles = map[string]string{
	"run/config.yaml": `defaults:
  base_name: grid
  seed: 7
  trace_file: trace.yaml
base_template: base.yaml
create:
  - this_agent: Wind
    type_template: wind.yaml
    count: 2
`,
	"run/base.yaml": `Agents:
  - Type: EnergyExchange
    Id: 1
Contracts: []
`,
	"run/wind.yaml": `Agent:
  Type: RenewablePlantOperator
  Attributes:
    InstalledPowerInMW: range_int(50;60)
    EnergyCarrier: WIND
Contracts:
  - SenderId: //THIS_AGENT
    ReceiverId: 1
    ProductName: Bids
`,
}

func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range runFiles {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	server, err := NewServer(&Config{Name: "test-server", Version: "v1.0.0", Root: root})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server, root
}

func TestHandleGenerate(t *testing.T) {
	server, root := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handleGenerate(ctx, &sdk.CallToolRequest{}, GenerateInput{
		ConfigPath: "run/config.yaml",
		OutputDir:  "out",
		Number:     2,
	})
	if err != nil {
		t.Fatalf("handleGenerate() error = %v", err)
	}
	if out.BaseSeed != 7 {
		t.Errorf("BaseSeed = %d, want 7", out.BaseSeed)
	}
	if len(out.Scenarios) != 2 {
		t.Fatalf("got %d scenarios, want 2", len(out.Scenarios))
	}
	for i, sc := range out.Scenarios {
		if want := fmt.Sprintf("out/grid_%d.yaml", i); sc.Path != want {
			t.Errorf("Scenarios[%d].Path = %q, want %q", i, sc.Path, want)
		}
		if sc.Agents != 3 || sc.Contracts != 2 || !sc.Plausible || sc.CapacityMW < 100 {
			t.Errorf("Scenarios[%d] = %+v", i, sc)
		}
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(sc.Path))); err != nil {
			t.Errorf("scenario file missing: %v", err)
		}
	}
	if !strings.HasPrefix(out.Message, "Created 2 scenario(s)") {
		t.Errorf("Message = %q", out.Message)
	}

	entries := readAuditAfterClose(t, server, root)
	if len(entries) != 1 || entries[0].Tool != ratelimit.ToolGenerate || entries[0].Params["config_path"] != "(set)" {
		t.Errorf("audit entries = %+v", entries)
	}
}

func readAuditAfterClose(t *testing.T, server *Server, root string) []AuditEntry {
	t.Helper()
	server.Close()
	return readAudit(t, root)
}

func TestHandleGenerate_RejectsEscapingPaths(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args GenerateInput
	}{
		{"config outside root", GenerateInput{ConfigPath: "../config.yaml"}},
		{"absolute config outside root", GenerateInput{ConfigPath: "/etc/passwd"}},
		{"output outside root", GenerateInput{ConfigPath: "run/config.yaml", OutputDir: "../../out"}},
		{"missing config", GenerateInput{}},
		{"too many", GenerateInput{ConfigPath: "run/config.yaml", Number: 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server.toolLimiters = ratelimit.NewToolLimiters()
			if _, _, err := server.handleGenerate(ctx, &sdk.CallToolRequest{}, tt.args); err == nil {
				t.Error("handleGenerate() expected error")
			}
		})
	}
}

func TestHandleGenerate_RateLimited(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	// Exhaust the generate bucket without doing work.
	for range 2 {
		_ = ratelimit.CheckLimit(server.toolLimiters, ratelimit.ToolGenerate)
	}
	_, _, err := server.handleGenerate(ctx, &sdk.CallToolRequest{}, GenerateInput{ConfigPath: "run/config.yaml"})
	if !errors.Is(err, ratelimit.ErrRateLimited) {
		t.Errorf("handleGenerate() error = %v, want ErrRateLimited", err)
	}
}

func TestHandleValidate(t *testing.T) {
	server, root := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handleValidate(ctx, &sdk.CallToolRequest{}, ValidateInput{ConfigPath: "run/config.yaml"})
	if err != nil {
		t.Fatalf("handleValidate() error = %v", err)
	}
	if !out.Valid || out.BaseAgents != 1 || len(out.Aliases) != 1 || out.Aliases[0] != "Wind" {
		t.Errorf("handleValidate() = %+v", out)
	}

	bad := filepath.Join(root, "run", "bad.yaml")
	if err := os.WriteFile(bad, []byte("defaults: {}\nbase_template: base.yaml\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, out, err = server.handleValidate(ctx, &sdk.CallToolRequest{}, ValidateInput{ConfigPath: "run/bad.yaml"})
	if err != nil {
		t.Fatalf("handleValidate() on invalid config returned tool error: %v", err)
	}
	if out.Valid || out.Error == "" {
		t.Errorf("invalid config reported as %+v", out)
	}
}

func TestHandleHistory(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handleHistory(ctx, &sdk.CallToolRequest{}, HistoryInput{OutputDir: "out"})
	if err != nil {
		t.Fatalf("handleHistory() on empty ledger error = %v", err)
	}
	if out.Count != 0 {
		t.Errorf("Count = %d on empty ledger", out.Count)
	}

	if _, _, err := server.handleGenerate(ctx, &sdk.CallToolRequest{}, GenerateInput{
		ConfigPath: "run/config.yaml", OutputDir: "out", Number: 2,
	}); err != nil {
		t.Fatal(err)
	}

	_, out, err = server.handleHistory(ctx, &sdk.CallToolRequest{}, HistoryInput{OutputDir: "out", Limit: 1})
	if err != nil {
		t.Fatalf("handleHistory() error = %v", err)
	}
	if out.Count != 1 || out.Runs[0].RunCount != 1 || out.Runs[0].Seed != 8 {
		t.Errorf("handleHistory() = %+v", out)
	}
	if out.Runs[0].Path != "out/grid_1.yaml" {
		t.Errorf("Path = %q", out.Runs[0].Path)
	}
}
