// Package errors provides centralized error definitions and error handling utilities
// for the airlift simulation. It defines the sentinel errors raised by the signal
// primitives, typed errors carrying actor and signal context, and classification
// helpers used by the supervisor to decide whether a failure aborts the run.
//
// # Error Types
//
// The package follows the two failure categories of the synchronization protocol:
//
// Primitive failures are reported by the mutex gate and rendezvous signals:
//   - SignalError: a raise, wait, lock or unlock could not be performed
//
// Actor failures wrap a primitive failure with the role that observed it:
//   - ActorError: a Pilot, Hostess or Passenger operation failed
//
// Protocol errors report a detected breach of the phase ordering:
//   - ProtocolError: a phase transition that the transition table forbids
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewSignalError("down", "readyToFlight", errors.ErrTornDown)
//	err := errors.NewActorError("pilot", "awaitBoardingComplete", err)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrTornDown) { ... }
//
//	var actorErr *errors.ActorError
//	if errors.As(err, &actorErr) { ... }
//
//	if errors.IsFatal(err) { ... }
//
// # Error Classification
//
// Every primitive failure and protocol error is fatal: the simulation is torn
// down rather than retried, because the shared record can no longer be
// assumed consistent.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that abort the simulation.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Primitive sentinel errors
var (
	// ErrTornDown indicates the signal set was closed while an actor used it.
	ErrTornDown = New("signal set torn down")
	// ErrSignalOverflow indicates a raise beyond the signal's pending bound.
	ErrSignalOverflow = New("signal raised beyond its bound")
	// ErrNotHeld indicates the mutex gate was released without being held.
	ErrNotHeld = New("mutex released while not held")
)

// Protocol sentinel errors
var (
	// ErrPhaseViolation indicates a phase transition outside the transition table.
	ErrPhaseViolation = New("phase transition violates cycle order")
	// ErrCapacityExceeded indicates an admission beyond the plane capacity.
	ErrCapacityExceeded = New("plane capacity exceeded")
	// ErrUnknownPassenger indicates a passenger id outside the configured range.
	ErrUnknownPassenger = New("unknown passenger")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrAborted indicates the simulation was aborted by another actor's failure.
	ErrAborted = New("simulation aborted")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// AirliftError is the base interface for all typed airlift errors.
type AirliftError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsFatal reports whether the error must abort the simulation.
	IsFatal() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message  string
	cause    error
	severity Severity
	fatal    bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsFatal returns whether the error aborts the simulation.
func (e *baseError) IsFatal() bool {
	return e.fatal
}

// -----------------------------------------------------------------------------
// Primitive Errors
// -----------------------------------------------------------------------------

// SignalError represents a failed operation on the mutex gate or a rendezvous signal.
//
// Example:
//
//	err := errors.NewSignalError("down", "planeEmpty", errors.ErrTornDown)
//	fmt.Println(err) // "signal error [signal=planeEmpty, op=down]: signal set torn down"
type SignalError struct {
	baseError
	Op     string
	Signal string
}

// NewSignalError creates a new SignalError. Primitive failures are always fatal.
func NewSignalError(op, signal string, cause error) *SignalError {
	return &SignalError{
		baseError: baseError{
			message:  fmt.Sprintf("%s %s", op, signal),
			cause:    cause,
			severity: SeverityCritical,
			fatal:    true,
		},
		Op:     op,
		Signal: signal,
	}
}

// Error returns the formatted error message.
func (e *SignalError) Error() string {
	prefix := fmt.Sprintf("signal error [signal=%s, op=%s]", e.Signal, e.Op)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// -----------------------------------------------------------------------------
// Actor Errors
// -----------------------------------------------------------------------------

// ActorError represents a failure observed by one of the simulation actors.
type ActorError struct {
	baseError
	Actor  string
	Op     string
	Flight int
}

// NewActorError creates a new ActorError. Fatality is inherited from the cause:
// a wrapped primitive failure or protocol error makes the actor error fatal.
func NewActorError(actor, op string, cause error) *ActorError {
	return &ActorError{
		baseError: baseError{
			message:  op,
			cause:    cause,
			severity: GetSeverity(cause),
			fatal:    IsFatal(cause),
		},
		Actor: actor,
		Op:    op,
	}
}

// WithFlight adds the flight number to the error context.
func (e *ActorError) WithFlight(n int) *ActorError {
	e.Flight = n
	return e
}

// Error returns the formatted error message.
func (e *ActorError) Error() string {
	parts := []string{fmt.Sprintf("actor=%s", e.Actor)}
	if e.Flight > 0 {
		parts = append(parts, fmt.Sprintf("flight=%d", e.Flight))
	}
	prefix := fmt.Sprintf("actor error [%s]", strings.Join(parts, ", "))
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Protocol Errors
// -----------------------------------------------------------------------------

// ProtocolError reports a transition that breaks the cycle order.
type ProtocolError struct {
	baseError
	Role string
	From string
	To   string
}

// NewProtocolError creates a ProtocolError wrapping ErrPhaseViolation.
func NewProtocolError(role, from, to string) *ProtocolError {
	return &ProtocolError{
		baseError: baseError{
			message:  fmt.Sprintf("%s %s -> %s", role, from, to),
			cause:    ErrPhaseViolation,
			severity: SeverityCritical,
			fatal:    true,
		},
		Role: role,
		From: from,
		To:   to,
	}
}

// -----------------------------------------------------------------------------
// Classification Functions
// -----------------------------------------------------------------------------

// IsFatal reports whether err must abort the simulation. Typed errors answer
// for themselves; bare primitive and protocol sentinels are fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var airliftErr AirliftError
	if As(err, &airliftErr) {
		return airliftErr.IsFatal()
	}

	return Is(err, ErrTornDown) || Is(err, ErrSignalOverflow) ||
		Is(err, ErrNotHeld) || Is(err, ErrPhaseViolation) ||
		Is(err, ErrCapacityExceeded)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement AirliftError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var airliftErr AirliftError
	if As(err, &airliftErr) {
		return airliftErr.Severity()
	}

	if IsFatal(err) {
		return SeverityCritical
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
