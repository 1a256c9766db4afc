package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across atomspace.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID  = "run_id"
	FieldTaskID = "task"

	// Components
	FieldComponent = "component"
	FieldSymbol    = "symbol" // component glyph (⊢, ✦, ꩜, ...)

	// Operations
	FieldOperation = "operation"
	FieldPattern   = "pattern"
	FieldTemplate  = "template"

	// Atom space
	FieldAtomID   = "atom_id"
	FieldAtomType = "atom_type"
	FieldRule     = "rule"
	FieldCategory = "category"
	FieldStep     = "step"
	FieldDepth    = "depth"
	FieldVariable = "variable"
	FieldSTI      = "sti"
	FieldLTI      = "lti"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount      = "count"
	FieldTotalCount = "total_count"
	FieldDerived    = "derived"
	FieldRoots      = "roots"
)

// Context keys for propagating logging context
type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	componentKey contextKey = "logger_component"
)

// WithRunID adds an inference or attention run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns base enriched with fields extracted from ctx.
// A nil base falls back to the global Logger.
func LoggerFromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Engine struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewEngine() *Engine {
//	    return &Engine{
//	        logger: logger.ComponentLogger("pln.engine"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	ruleLogger := logger.ChildLogger(baseLogger, logger.FieldRule, rule.Name)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
