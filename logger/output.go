package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - Structure summaries, batch totals, errors with hints
//	1 (-v)      - + Per-member progress, resolved format per file
//	2 (-vv)     - + Resolution provenance, timing, config loaded
//	3 (-vvv)    - + External converter output, catalog SQL
//	4 (-vvvv)   - + Full structure record dumps

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults  OutputCategory = iota // Structure summaries, batch totals
	OutputErrors                         // Errors with hints
	OutputFailures                       // Per-member failure list of a batch

	// Level 1 (-v) - Informational
	OutputProgress // Per-member progress ("read 12/40 members")
	OutputFormats  // Resolved format per file

	// Level 2 (-vv) - Detailed
	OutputResolution // Provenance of each format decision
	OutputTiming     // Operation timing
	OutputConfig     // Config values loaded/applied

	// Level 3 (-vvv) - Debug
	OutputConverter  // External converter stdout/stderr
	OutputSQLQueries // Catalog SQL

	// Level 4 (-vvvv) - Full dump
	OutputDataDump // Full structure records
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults:  VerbosityUser,
	OutputErrors:   VerbosityUser,
	OutputFailures: VerbosityUser,

	OutputProgress: VerbosityInfo,
	OutputFormats:  VerbosityInfo,

	OutputResolution: VerbosityDebug,
	OutputTiming:     VerbosityDebug,
	OutputConfig:     VerbosityDebug,

	OutputConverter:  VerbosityTrace,
	OutputSQLQueries: VerbosityTrace,

	OutputDataDump: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputResults:    "results",
	OutputErrors:     "errors",
	OutputFailures:   "failures",
	OutputProgress:   "progress",
	OutputFormats:    "formats",
	OutputResolution: "resolution",
	OutputTiming:     "timing",
	OutputConfig:     "config",
	OutputConverter:  "converter",
	OutputSQLQueries: "sql",
	OutputDataDump:   "data-dump",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
