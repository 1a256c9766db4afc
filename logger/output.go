package logger

// OutputCategory defines a category of CLI output that can be enabled/disabled.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information the CLI prints regardless of severity.
type OutputCategory int

const (
	// Level 1 (-v) - Informational
	OutputProgress OutputCategory = iota // Per-step and per-cycle summaries
	OutputStartup                        // Knowledge base loaded

	// Level 2 (-vv) - Detailed
	OutputTiming   // Query and inference timing
	OutputConfig   // Effective config summary
	OutputBindings // Matched atoms and depth next to each match

	// Level 3 (-vvv) - Debug
	OutputDerivations // Explain tree for each derived atom

	// Level 4 (-vvvv) - Full dump
	OutputDataDump // Full atom contents of each match
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputProgress:    VerbosityInfo,
	OutputStartup:     VerbosityInfo,
	OutputTiming:      VerbosityDebug,
	OutputConfig:      VerbosityDebug,
	OutputBindings:    VerbosityDebug,
	OutputDerivations: VerbosityTrace,
	OutputDataDump:    VerbosityAll,
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
