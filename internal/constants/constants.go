// Package constants provides named constants used throughout the scengen codebase.
// This centralizes magic strings and defaults for better maintainability.
package constants

// Placeholder identifier constants
const (
	// PlaceholderSentinel prefixes every identifier that must be resolved to a
	// concrete integer before a scenario can be executed.
	PlaceholderSentinel = "//"

	// ThisAgentRole is the role name that binds a contract endpoint to the
	// agents created by the enclosing create-directive.
	ThisAgentRole = "THIS_AGENT"

	// ThisAgentKey is ThisAgentRole in its placeholder form as written in templates.
	ThisAgentKey = PlaceholderSentinel + ThisAgentRole
)

// Directive names recognized by the field digester.
const (
	DirectiveRangeInt   = "range_int"
	DirectiveRangeFloat = "range_float"
	DirectiveChoose     = "choose"
	DirectivePickFile   = "pickfile"

	// DirectiveDeprecatedRange is the legacy range directive that is rejected.
	DirectiveDeprecatedRange = "range"

	// DirectiveSeparator separates directive arguments.
	DirectiveSeparator = ";"
)

// File and naming constants
const (
	// SeriesExtension marks attribute values that reference time-series files.
	SeriesExtension = ".csv"

	// DirName is the per-output-directory bookkeeping directory.
	DirName = ".scengen"

	// LedgerFileName is the SQLite run ledger inside DirName.
	LedgerFileName = "runs.db"

	// DecisionsFileName is the JSONL digestion trace inside DirName.
	DecisionsFileName = "decisions.jsonl"

	// TraceFileTimeLayout formats the name of auto-created trace files.
	TraceFileTimeLayout = "2006-01-02_150405"
)

// Defaults
const (
	// DefaultScenarioCount is the number of scenarios `create` generates
	// when --number is not given.
	DefaultScenarioCount = 10

	// DefaultLogLevel mirrors the quiet default of the command line.
	DefaultLogLevel = "error"

	// DefaultHistoryLimit bounds `history` output.
	DefaultHistoryLimit = 20
)

// MCP server
const (
	// AuditFileName is the JSONL log of MCP tool calls inside DirName.
	AuditFileName = "audit.jsonl"

	// MaxToolScenarios bounds one scengen_generate call.
	MaxToolScenarios = 100

	// MaxAgentCount bounds the agents one create-directive may produce.
	MaxAgentCount = 1_000_000
)
