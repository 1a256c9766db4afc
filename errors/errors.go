// Package errors provides error handling for atomspace.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for the CLI
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := m.Validate(p); err != nil {
//	    return errors.Wrap(err, "pattern rejected")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "variable names must start with a letter")
//
//	// Check errors
//	if errors.Is(err, errors.ErrMalformedPattern) {
//	    // fail closed
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Join         = crdb.Join
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetStack is an alias for GetReportableStackTrace for convenience.
var GetStack = crdb.GetReportableStackTrace

// Assertions and panics
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors shared across atomspace packages.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested atom, rule or template does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates a malformed argument at the API boundary
	ErrInvalidRequest = New("invalid request")

	// ErrInvalidAtom indicates an atom that cannot be inserted into the store
	ErrInvalidAtom = New("invalid atom")

	// ErrMalformedPattern indicates a pattern rejected by validation
	ErrMalformedPattern = New("malformed pattern")

	// ErrConflictingBinding indicates AND branches bound one variable to different atoms
	ErrConflictingBinding = New("conflicting variable binding")

	// ErrInconsistentTruthValue indicates a truth value outside [0,1] or not a number
	ErrInconsistentTruthValue = New("inconsistent truth value")

	// ErrInvalidRule indicates a rule that cannot be registered or applied
	ErrInvalidRule = New("invalid rule")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsMalformedPatternError checks if an error is or wraps ErrMalformedPattern
func IsMalformedPatternError(err error) bool {
	return err != nil && Is(err, ErrMalformedPattern)
}

// IsInconsistentTruthValueError checks if an error is or wraps ErrInconsistentTruthValue
func IsInconsistentTruthValueError(err error) bool {
	return err != nil && Is(err, ErrInconsistentTruthValue)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// NewMalformedPatternError creates a malformed-pattern error with a formatted message
func NewMalformedPatternError(format string, args ...interface{}) error {
	return Wrapf(ErrMalformedPattern, format, args...)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidRequest, format, args...)
}
