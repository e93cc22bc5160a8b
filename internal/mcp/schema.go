package mcp

import "time"

// GenerateInput is the input of scengen_generate.
type GenerateInput struct {
	ConfigPath string `json:"config_path" jsonschema:"Run configuration file, relative to the server root"`
	OutputDir  string `json:"output_dir,omitempty" jsonschema:"Directory for generated scenarios, relative to the server root (default: scenarios)"`
	Number     int    `json:"number,omitempty" jsonschema:"Number of scenarios to generate (default: 1, max: 100)"`
}

// GenerateOutput is the output of scengen_generate.
type GenerateOutput struct {
	BaseSeed  int64             `json:"base_seed" jsonschema:"Base seed; scenario k uses base_seed + k"`
	TraceFile string            `json:"trace_file" jsonschema:"Trace file holding the run counter"`
	Scenarios []ScenarioSummary `json:"scenarios" jsonschema:"Generated scenarios in creation order"`
	Message   string            `json:"message" jsonschema:"Human-readable result message"`
}

// ScenarioSummary describes one generated scenario.
type ScenarioSummary struct {
	Path       string  `json:"path"`
	RunCount   int     `json:"run_count"`
	Seed       int64   `json:"seed"`
	Agents     int     `json:"agents"`
	Contracts  int     `json:"contracts"`
	CapacityMW float64 `json:"capacity_mw"`
	Plausible  bool    `json:"plausible"`
}

// ValidateInput is the input of scengen_validate.
type ValidateInput struct {
	ConfigPath string `json:"config_path" jsonschema:"Run configuration file, relative to the server root"`
}

// ValidateOutput is the output of scengen_validate.
type ValidateOutput struct {
	Valid      bool     `json:"valid" jsonschema:"Whether every check passed"`
	Aliases    []string `json:"aliases,omitempty" jsonschema:"Aliases of the create-directives"`
	BaseAgents int      `json:"base_agents,omitempty" jsonschema:"Agents already in the base template"`
	Error      string   `json:"error,omitempty" jsonschema:"First failed check"`
	Message    string   `json:"message" jsonschema:"Human-readable result message"`
}

// HistoryInput is the input of scengen_history.
type HistoryInput struct {
	OutputDir string `json:"output_dir,omitempty" jsonschema:"Output directory whose ledger to read, relative to the server root (default: scenarios)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of entries, newest first (default: 20)"`
}

// HistoryOutput is the output of scengen_history.
type HistoryOutput struct {
	Runs  []RunSummary `json:"runs" jsonschema:"Ledger entries, newest first"`
	Count int          `json:"count" jsonschema:"Number of entries returned"`
}

// RunSummary is one ledger entry.
type RunSummary struct {
	RunCount   int       `json:"run_count"`
	Seed       int64     `json:"seed"`
	Path       string    `json:"path"`
	Agents     int       `json:"agents"`
	Contracts  int       `json:"contracts"`
	Digest     string    `json:"digest"`
	CapacityMW float64   `json:"capacity_mw"`
	Plausible  bool      `json:"plausible"`
	CreatedAt  time.Time `json:"created_at"`
}
