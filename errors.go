package odo

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// StateError reports use of a parameter slot before it was declared, or an
// iteration state that can no longer produce arguments.
//
// State errors are programming errors in the engine's own usage and are
// always fatal to the run in progress.
type StateError struct {
	// Code identifies the error category.
	Code StateErrorCode

	// Message is a human-readable description.
	Message string

	// Position is the zero-based declaration position, if known.
	Position int
}

// StateErrorCode categorizes state errors.
type StateErrorCode string

const (
	// ErrCodeUndeclared indicates an accessor was used before declaration.
	ErrCodeUndeclared StateErrorCode = "UNDECLARED_PARAMETER"

	// ErrCodeEmptyReiteration indicates an argument sequence that was
	// non-empty at declaration produced no elements when re-iterated for
	// wrap-around.
	ErrCodeEmptyReiteration StateErrorCode = "EMPTY_REITERATION"
)

// Error implements the error interface.
func (e *StateError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s: %s (position=%d)", e.Code, e.Message, e.Position)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ProtocolError reports a violation of the declaration protocol: the block
// is non-deterministic in which parameters it declares, a parameter state
// was queried with the wrong binding site, or a decorator broke its
// invoke-exactly-once contract.
//
// Protocol errors abort the whole run and are never retried.
type ProtocolError struct {
	// Code identifies the error category.
	Code ProtocolErrorCode

	// Message is a human-readable description.
	Message string

	// Position is the zero-based declaration position, if known.
	Position int

	// Site names the binding site involved, if known.
	Site string

	// Previous names the binding site previously held at the position,
	// for declaration-order violations.
	Previous string
}

// ProtocolErrorCode categorizes protocol errors.
type ProtocolErrorCode string

const (
	// ErrCodeSiteMismatch indicates a parameter state was queried with a
	// site that does not match the one it was declared at.
	ErrCodeSiteMismatch ProtocolErrorCode = "SITE_MISMATCH"

	// ErrCodeOrderViolated indicates a different parameter was declared at
	// an already-occupied position.
	ErrCodeOrderViolated ProtocolErrorCode = "DECLARATION_ORDER"

	// ErrCodeDecorator indicates a decorator invoked its iteration zero or
	// multiple times.
	ErrCodeDecorator ProtocolErrorCode = "DECORATOR_CONTRACT"

	// ErrCodePairwiseLength indicates pairwise sequences of unequal length.
	ErrCodePairwiseLength ProtocolErrorCode = "PAIRWISE_LENGTH"
)

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	switch {
	case e.Site != "" && e.Previous != "":
		return fmt.Sprintf("%s: %s (position=%d, declared=%q, expected=%q)", e.Code, e.Message, e.Position, e.Site, e.Previous)
	case e.Site != "":
		return fmt.Sprintf("%s: %s (site=%q)", e.Code, e.Message, e.Site)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsStateError returns true if the error is a StateError.
// Uses errors.As to handle wrapped errors.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// IsProtocolError returns true if the error is a ProtocolError.
// Uses errors.As to handle wrapped errors.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsOrderViolation returns true if the error is a declaration-order
// protocol violation.
func IsOrderViolation(err error) bool {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeOrderViolated
	}
	return false
}

// PanicFailure wraps a panic recovered from the caller's block so it can be
// routed through the ordinary per-iteration failure path with the arguments
// that produced it.
type PanicFailure struct {
	// Value is the recovered panic value.
	Value any

	// Stack is the goroutine stack captured at recovery.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicFailure) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// newPanicFailure captures the current stack for a recovered panic value.
func newPanicFailure(v any) *PanicFailure {
	return &PanicFailure{Value: v, Stack: debug.Stack()}
}
