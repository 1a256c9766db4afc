// Package sym defines canonical glyphs for atomspace components.
// They tag log lines (see logger.FieldSymbol) and prefix CLI output,
// so a reader can tell at a glance which subsystem produced a line.
package sym

// Component glyphs.
const (
	AM    = "≡" // am: configuration
	Store = "⊔" // atom graph store
	Match = "⋈" // pattern matcher queries
	PLN   = "⊢" // inference (derivation)
	ECAN  = "✦" // attention allocation
	Mine  = "⨳" // pattern mining
)

// System infrastructure symbols.
const (
	Pulse      = "꩜" // periodic cycles, rate limiting
	PulseOpen  = "✿" // scheduler startup
	PulseClose = "❀" // scheduler shutdown
)

// SymbolToCommand maps glyph strings to the CLI command that surfaces them.
var SymbolToCommand = map[string]string{
	AM:    "am",
	Match: "query",
	PLN:   "infer",
	ECAN:  "attention",
	Mine:  "mine",
	Pulse: "pulse",
}

// CommandToSymbol maps CLI commands to their canonical glyph strings.
var CommandToSymbol = map[string]string{
	"am":        AM,
	"query":     Match,
	"infer":     PLN,
	"attention": ECAN,
	"mine":      Mine,
	"pulse":     Pulse,
}

// CommandDescriptions provides one-line explanations used in command help.
var CommandDescriptions = map[string]string{
	"am":        "Configuration: effective settings",
	"query":     "Match: find atoms matching a pattern",
	"infer":     "Inference: forward-chain new atoms",
	"attention": "Attention: allocate and spread importance",
	"mine":      "Mining: frequent patterns in a knowledge base",
	"pulse":     "Pulse: attention and inference cycles on a ticker",
}
