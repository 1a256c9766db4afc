package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the process-wide logger. Components derive named children
	// from it through ComponentLogger.
	Logger *zap.SugaredLogger
	// JSONOutput records whether Initialize selected the JSON encoder.
	JSONOutput bool

	// sink receives console and JSON output alike; stdout is reserved for
	// command results.
	sink zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
)

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger at info level.
func Initialize(jsonOutput bool) error {
	return initialize(jsonOutput, zapcore.InfoLevel)
}

// InitializeWithVerbosity sets up the global logger from a -v flag count.
// ATOMSPACE_LOG_THEME selects the console colour theme.
func InitializeWithVerbosity(jsonOutput bool, verbosity int) error {
	return initialize(jsonOutput, VerbosityToLevel(verbosity))
}

func initialize(jsonOutput bool, level zapcore.Level) error {
	if theme := os.Getenv("ATOMSPACE_LOG_THEME"); theme != "" {
		SetTheme(theme)
	}

	var enc zapcore.Encoder = newMinimalEncoder()
	if jsonOutput {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	}

	core := zapcore.NewCore(enc, sink, zap.NewAtomicLevelAt(level))
	opts := []zap.Option{zap.ErrorOutput(sink)}
	if jsonOutput {
		opts = append(opts, zap.AddCaller())
	}

	JSONOutput = jsonOutput
	Logger = zap.New(core, opts...).Sugar()
	return nil
}

// Cleanup flushes any buffered log entries.
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
