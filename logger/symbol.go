package logger

import (
	"github.com/teranos/atomspace/sym"
	"go.uber.org/zap"
)

// Symbol-aware logging helpers.
// These wrap an instance logger with the component glyph as a structured
// field, not in the message, so logs stay queryable by symbol.
//
// Usage:
//
//	type Engine struct {
//	    log *zap.SugaredLogger
//	}
//	e.log = logger.AddPLNSymbol(baseLogger)

// AddPulseSymbol wraps a logger with the Pulse symbol (꩜)
func AddPulseSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Pulse)
}

// AddPLNSymbol wraps a logger with the inference symbol (⊢)
func AddPLNSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.PLN)
}

// AddECANSymbol wraps a logger with the attention symbol (✦)
func AddECANSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.ECAN)
}

// AddMatchSymbol wraps a logger with the matcher symbol (⋈)
func AddMatchSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Match)
}

// AddStoreSymbol wraps a logger with the store symbol (⊔)
func AddStoreSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Store)
}

// PulseOpenInfow logs an info message with the PulseOpen symbol (✿)
func PulseOpenInfow(l *zap.SugaredLogger, msg string, keysAndValues ...interface{}) {
	if l != nil {
		fields := append([]interface{}{FieldSymbol, sym.PulseOpen}, keysAndValues...)
		l.Infow(msg, fields...)
	}
}

// PulseCloseInfow logs an info message with the PulseClose symbol (❀)
func PulseCloseInfow(l *zap.SugaredLogger, msg string, keysAndValues ...interface{}) {
	if l != nil {
		fields := append([]interface{}{FieldSymbol, sym.PulseClose}, keysAndValues...)
		l.Infow(msg, fields...)
	}
}
