package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/scengen/internal/config"
	"github.com/nvandessel/scengen/internal/constants"
	"github.com/nvandessel/scengen/internal/pathutil"
	"github.com/nvandessel/scengen/internal/ratelimit"
	"github.com/nvandessel/scengen/internal/workflow"
)

// defaultOutputDir is used when a tool call names no output directory.
const defaultOutputDir = "scenarios"

// registerTools registers the scengen tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolGenerate,
		Description: "Generate scenarios from a run configuration: instantiate agents from type templates, expand contracts, resolve ids and write one YAML file per scenario",
	}, s.handleGenerate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolValidate,
		Description: "Check a run configuration without writing anything: schema, base template, create-directive aliases, type templates and count expressions",
	}, s.handleValidate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolHistory,
		Description: "List previously generated scenarios from the run ledger of an output directory, newest first",
	}, s.handleHistory)
}

// resolvePath joins a tool argument to the server root and rejects paths
// that leave it.
func (s *Server) resolvePath(p, fallback string) (string, error) {
	if p == "" {
		p = fallback
	}
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	return pathutil.Confine(s.root, p)
}

// handleGenerate implements the scengen_generate tool.
func (s *Server) handleGenerate(ctx context.Context, req *sdk.CallToolRequest, args GenerateInput) (_ *sdk.CallToolResult, _ GenerateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolGenerate, start, retErr, sanitizeToolParams(map[string]any{
			"config_path": args.ConfigPath, "output_dir": args.OutputDir, "number": args.Number,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolGenerate); err != nil {
		return nil, GenerateOutput{}, err
	}

	number := args.Number
	if number == 0 {
		number = 1
	}
	if number < 1 || number > constants.MaxToolScenarios {
		return nil, GenerateOutput{}, fmt.Errorf("number must be between 1 and %d, got %d", constants.MaxToolScenarios, args.Number)
	}

	configPath, err := s.resolvePath(args.ConfigPath, "")
	if err != nil {
		return nil, GenerateOutput{}, fmt.Errorf("config_path: %w", err)
	}
	outputDir, err := s.resolvePath(args.OutputDir, defaultOutputDir)
	if err != nil {
		return nil, GenerateOutput{}, fmt.Errorf("output_dir: %w", err)
	}

	res, err := workflow.Create(ctx, workflow.Options{
		ConfigPath: configPath,
		OutputDir:  outputDir,
		Number:     number,
		LogLevel:   s.logLevel,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, GenerateOutput{}, err
	}

	out := GenerateOutput{
		BaseSeed:  res.BaseSeed,
		TraceFile: s.relative(res.TraceFile),
		Scenarios: make([]ScenarioSummary, 0, len(res.Scenarios)),
	}
	implausible := 0
	for _, g := range res.Scenarios {
		sum := ScenarioSummary{
			Path:      s.relative(g.Path),
			RunCount:  g.RunCount,
			Seed:      g.Seed,
			Agents:    g.Agents,
			Contracts: g.Contracts,
		}
		if g.Estimate != nil {
			sum.CapacityMW = g.Estimate.TotalMW
			sum.Plausible = g.Estimate.Plausible
		}
		if !sum.Plausible {
			implausible++
		}
		out.Scenarios = append(out.Scenarios, sum)
	}
	out.Message = fmt.Sprintf("Created %d scenario(s)", len(out.Scenarios))
	if implausible > 0 {
		out.Message += fmt.Sprintf("; %d without installed capacity", implausible)
	}
	return nil, out, nil
}

// handleValidate implements the scengen_validate tool. A configuration that
// fails a check is a valid answer, not a tool error.
func (s *Server) handleValidate(ctx context.Context, req *sdk.CallToolRequest, args ValidateInput) (_ *sdk.CallToolResult, _ ValidateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolValidate, start, retErr, sanitizeToolParams(map[string]any{
			"config_path": args.ConfigPath,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolValidate); err != nil {
		return nil, ValidateOutput{}, err
	}
	configPath, err := s.resolvePath(args.ConfigPath, "")
	if err != nil {
		return nil, ValidateOutput{}, fmt.Errorf("config_path: %w", err)
	}

	v, err := workflow.Validate(configPath)
	if err != nil {
		return nil, ValidateOutput{
			Error:   err.Error(),
			Message: "Run configuration is invalid",
		}, nil
	}
	return nil, ValidateOutput{
		Valid:      true,
		Aliases:    v.Aliases,
		BaseAgents: v.BaseAgents,
		Message:    fmt.Sprintf("Run configuration is valid: %d create-directive(s)", len(v.Aliases)),
	}, nil
}

// handleHistory implements the scengen_history tool.
func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolHistory, start, retErr, sanitizeToolParams(map[string]any{
			"output_dir": args.OutputDir, "limit": args.Limit,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolHistory); err != nil {
		return nil, HistoryOutput{}, err
	}
	outputDir, err := s.resolvePath(args.OutputDir, defaultOutputDir)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("output_dir: %w", err)
	}
	limit := args.Limit
	if limit <= 0 {
		limit = config.Default().History.Limit
	}

	runs, err := workflow.History(ctx, outputDir, limit)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	out := HistoryOutput{Runs: make([]RunSummary, 0, len(runs)), Count: len(runs)}
	for _, r := range runs {
		out.Runs = append(out.Runs, RunSummary{
			RunCount:   r.RunCount,
			Seed:       r.Seed,
			Path:       s.relative(r.Path),
			Agents:     r.Agents,
			Contracts:  r.Contracts,
			Digest:     r.Digest,
			CapacityMW: r.CapacityMW,
			Plausible:  r.Plausible,
			CreatedAt:  r.CreatedAt,
		})
	}
	return nil, out, nil
}

// relative reports p relative to the server root when possible.
func (s *Server) relative(p string) string {
	if rel, err := filepath.Rel(s.root, p); err == nil {
		return filepath.ToSlash(rel)
	}
	return p
}
