// Package workflow runs scenario generation for a run configuration: it
// derives per-scenario seeds from the trace file, generates and writes each
// scenario, estimates it, and records it in the run ledger.
package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nvandessel/scengen/internal/config"
	"github.com/nvandessel/scengen/internal/estimate"
	"github.com/nvandessel/scengen/internal/generator"
	"github.com/nvandessel/scengen/internal/logging"
	"github.com/nvandessel/scengen/internal/pathutil"
	"github.com/nvandessel/scengen/internal/scenario"
	"github.com/nvandessel/scengen/internal/store"
	"github.com/nvandessel/scengen/internal/trace"
)

// Options configures Create.
type Options struct {
	ConfigPath string
	OutputDir  string

	// Number of scenarios to generate. Must be at least 1.
	Number int

	// LogLevel enables the decision trace at debug or trace.
	LogLevel string
	Logger   *slog.Logger

	// Store records generated scenarios. Nil opens the SQLite ledger of
	// OutputDir.
	Store store.RunStore

	// Now defaults to time.Now.
	Now func() time.Time
}

// Generated describes one written scenario.
type Generated struct {
	Path      string           `json:"path"`
	RunCount  int              `json:"run_count"`
	Seed      int64            `json:"seed"`
	Agents    int              `json:"agents"`
	Contracts int              `json:"contracts"`
	Digest    string           `json:"digest"`
	LedgerID  int64            `json:"ledger_id"`
	Estimate  *estimate.Report `json:"estimate"`
}

// Result summarizes a Create call.
type Result struct {
	ConfigPath string      `json:"config_path"`
	OutputDir  string      `json:"output_dir"`
	TraceFile  string      `json:"trace_file"`
	BaseSeed   int64       `json:"base_seed"`
	Scenarios  []Generated `json:"scenarios"`
}

// Create generates opts.Number scenarios. Scenario k of the trace file is
// named <base_name>_<k>.yaml and seeded with base seed + k. The trace file
// is advanced after each written scenario, so a cancelled run resumes
// numbering where it stopped. Scenarios written before an error are kept
// and listed in the partial result.
func Create(ctx context.Context, opts Options) (*Result, error) {
	if opts.Number < 1 {
		return nil, fmt.Errorf("number of scenarios must be at least 1, got %d", opts.Number)
	}
	if opts.OutputDir == "" {
		return nil, errors.New("no output directory")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	rc, err := config.LoadRun(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	tracker, err := openTrace(rc, now, logger)
	if err != nil {
		return nil, err
	}
	baseSeed := chooseBaseSeed(rc, tracker, now)
	if err := tracker.SetSeed(baseSeed); err != nil {
		return nil, err
	}

	base, err := scenario.Load(rc.BaseTemplatePath())
	if err != nil {
		return nil, fmt.Errorf("base template: %w", err)
	}
	prefix, err := pathutil.SeriesPrefix(rc.Dir(), opts.OutputDir, rc.BaseTemplate)
	if err != nil {
		return nil, err
	}
	if err := pathutil.EnsureDir(opts.OutputDir); err != nil {
		return nil, err
	}

	ledger := opts.Store
	if ledger == nil {
		sqliteStore, err := store.NewSQLiteRunStore(opts.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("opening run ledger: %w", err)
		}
		defer sqliteStore.Close()
		ledger = sqliteStore
	}

	decisions := logging.NewDecisionLogger(pathutil.StateDir(opts.OutputDir), opts.LogLevel)
	defer decisions.Close()

	loader := generator.NewDirLoader(rc.Dir())
	res := &Result{
		ConfigPath: rc.Path(),
		OutputDir:  opts.OutputDir,
		TraceFile:  tracker.Path(),
		BaseSeed:   baseSeed,
	}

	logger.Info("starting scenario generation",
		"config", pathutil.RedactPath(rc.Path()), "number", opts.Number, "base_seed", baseSeed)

	for i := 0; i < opts.Number; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		count := tracker.TotalCount()
		seed := baseSeed + int64(count)
		gen, err := generator.Generate(generator.Request{
			Directives:   rc.Create,
			Base:         base,
			Loader:       loader,
			Seed:         seed,
			PickRoot:     rc.Dir(),
			SeriesPrefix: prefix,
		}, generator.WithLogger(logger), generator.WithDecisionLogger(decisions))
		if err != nil {
			return res, fmt.Errorf("scenario %d: %w", count, err)
		}

		report, err := estimate.Scenario(gen.Scenario, logger)
		if err != nil {
			return res, fmt.Errorf("scenario %d: estimate: %w", count, err)
		}

		path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%d.yaml", rc.Defaults.BaseName, count))
		data, err := scenario.WriteFile(path, gen.Scenario)
		if err != nil {
			return res, fmt.Errorf("scenario %d: %w", count, err)
		}
		sum := sha256.Sum256(data)

		g := Generated{
			Path:      path,
			RunCount:  count,
			Seed:      seed,
			Agents:    len(gen.Scenario.Agents),
			Contracts: len(gen.Scenario.Contracts),
			Digest:    hex.EncodeToString(sum[:]),
			Estimate:  report,
		}
		g.LedgerID, err = ledger.Record(ctx, store.Run{
			ConfigPath: rc.Path(),
			RunCount:   count,
			Seed:       seed,
			Path:       path,
			Agents:     g.Agents,
			Contracts:  g.Contracts,
			Digest:     g.Digest,
			CapacityMW: report.TotalMW,
			Plausible:  report.Plausible,
			CreatedAt:  now(),
		})
		if err != nil {
			return res, fmt.Errorf("scenario %d: %w", count, err)
		}
		if err := tracker.Increment(); err != nil {
			return res, err
		}
		res.Scenarios = append(res.Scenarios, g)

		logger.Debug("wrote scenario", "path", pathutil.RedactPath(path), "seed", seed,
			"capacity_mw", report.TotalMW, "plausible", report.Plausible)
	}

	logger.Info("created scenarios", "count", len(res.Scenarios), "of", opts.Number)
	return res, nil
}

// openTrace opens the configured trace file. Without one, a new file named
// after the current time is created next to the configuration and recorded
// in it.
func openTrace(rc *config.RunConfig, now func() time.Time, logger *slog.Logger) (*trace.Tracker, error) {
	if rc.TraceFilePath() == "" {
		name := trace.DefaultName(now())
		logger.Warn("no trace file configured, creating one", "trace_file", name)
		if err := rc.SetTraceFile(name); err != nil {
			return nil, err
		}
	}
	return trace.Open(rc.TraceFilePath())
}

// chooseBaseSeed prefers the configured seed, then the seed stored in the
// trace file, then wall-clock nanoseconds.
func chooseBaseSeed(rc *config.RunConfig, tracker *trace.Tracker, now func() time.Time) int64 {
	if rc.Defaults.Seed != nil {
		return *rc.Defaults.Seed
	}
	if seed, ok := tracker.Seed(); ok {
		return seed
	}
	return now().UnixNano()
}

// Validation summarizes a configuration that passed every check.
type Validation struct {
	ConfigPath   string   `json:"config_path"`
	BaseTemplate string   `json:"base_template"`
	Aliases      []string `json:"aliases"`
	BaseAgents   int      `json:"base_agents"`
}

// Validate checks a run configuration without writing anything: schema,
// base template, directive aliases, type templates and count expressions.
func Validate(configPath string) (*Validation, error) {
	rc, err := config.LoadRun(configPath)
	if err != nil {
		return nil, err
	}
	base, err := scenario.Load(rc.BaseTemplatePath())
	if err != nil {
		return nil, fmt.Errorf("base template: %w", err)
	}
	if err := generator.Validate(rc.Create, generator.NewDirLoader(rc.Dir())); err != nil {
		return nil, err
	}

	v := &Validation{
		ConfigPath:   rc.Path(),
		BaseTemplate: rc.BaseTemplatePath(),
		BaseAgents:   len(base.Agents),
		Aliases:      make([]string, 0, len(rc.Create)),
	}
	for _, d := range rc.Create {
		v.Aliases = append(v.Aliases, d.ThisAgent)
	}
	return v, nil
}

// History lists up to limit ledger entries of outputDir, newest first.
func History(ctx context.Context, outputDir string, limit int) ([]store.Run, error) {
	s, err := store.NewSQLiteRunStore(outputDir)
	if err != nil {
		return nil, fmt.Errorf("opening run ledger: %w", err)
	}
	defer s.Close()
	return s.List(ctx, limit)
}
