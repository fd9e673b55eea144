// Package errors provides centralized error definitions and error handling utilities
// for the percolate codebase. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - RangeError: lattice or union-find access outside valid bounds
//   - StateError: a model operation invoked in the wrong lifecycle state
//   - PoolError: misuse of the worker pool or a task that could not complete
//   - TrialError: a single Monte Carlo trial that failed inside a round
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or parameters
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewRangeError("lattice", 17, 16)
//	err := errors.NewStateError("sample", "uninitialized", "clusters_built")
//	err := errors.NewTrialError(cause).WithRound(3).WithSlot(7)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrIndexOutOfRange) { ... }
//
//	var trialErr *errors.TrialError
//	if errors.As(err, &trialErr) { ... }
//
//	if errors.IsUserFacing(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
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
	// SeverityCritical is for errors that require immediate attention.
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

// Model-related sentinel errors
var (
	// ErrIndexOutOfRange indicates a site or node id outside the valid bounds.
	ErrIndexOutOfRange = New("index out of range")
	// ErrInvalidState indicates an operation was called in the wrong lifecycle state.
	ErrInvalidState = New("invalid state")
)

// Pool-related sentinel errors
var (
	// ErrPoolShutdown indicates work was submitted after the pool began shutting down.
	ErrPoolShutdown = New("pool is shut down")
	// ErrTaskPanicked indicates a task panicked while running on a worker.
	ErrTaskPanicked = New("task panicked")
	// ErrTaskAbandoned indicates a queued task was dropped by Close before it ran.
	ErrTaskAbandoned = New("task abandoned")
	// ErrTrialFailed indicates a Monte Carlo trial did not produce a sample.
	ErrTrialFailed = New("trial failed")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// PercolateError is the base interface for all percolate errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type PercolateError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
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

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// formatWithContext renders "<kind> [k=v, ...]: message[: cause]".
func (e *baseError) formatWithContext(kind string, parts []string) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// RangeError reports an access outside the bounds of a lattice or union-find.
// It is a contract violation and always matches ErrIndexOutOfRange.
//
// Example:
//
//	err := errors.NewRangeError("unionfind", 20, 20)
//	fmt.Println(err) // "range error [component=unionfind, index=20, limit=20]: index out of range"
type RangeError struct {
	baseError
	Component string
	Index     int
	Limit     int
}

// NewRangeError creates a new RangeError for index in [0, limit).
func NewRangeError(component string, index, limit int) *RangeError {
	return &RangeError{
		baseError: baseError{
			message:    ErrIndexOutOfRange.Error(),
			severity:   SeverityError,
			retryable:  false,
			userFacing: false,
		},
		Component: component,
		Index:     index,
		Limit:     limit,
	}
}

// Error returns the formatted error message.
func (e *RangeError) Error() string {
	var parts []string
	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("component=%s", e.Component))
	}
	parts = append(parts, fmt.Sprintf("index=%d", e.Index), fmt.Sprintf("limit=%d", e.Limit))
	return e.formatWithContext("range error", parts)
}

// Is checks if this error matches the target.
func (e *RangeError) Is(target error) bool {
	if _, ok := target.(*RangeError); ok {
		return true
	}
	if target == ErrIndexOutOfRange {
		return true
	}
	return e.baseError.Is(target)
}

// StateError reports an operation invoked before its prerequisites ran.
//
// Example:
//
//	err := errors.NewStateError("sample", "lattice_generated", "clusters_built")
type StateError struct {
	baseError
	Operation string
	Have      string
	Want      string
}

// NewStateError creates a new StateError.
func NewStateError(operation, have, want string) *StateError {
	return &StateError{
		baseError: baseError{
			message:    fmt.Sprintf("%s requires state %s", operation, want),
			severity:   SeverityError,
			retryable:  false,
			userFacing: false,
		},
		Operation: operation,
		Have:      have,
		Want:      want,
	}
}

// Error returns the formatted error message.
func (e *StateError) Error() string {
	var parts []string
	if e.Have != "" {
		parts = append(parts, fmt.Sprintf("state=%s", e.Have))
	}
	return e.formatWithContext("state error", parts)
}

// Is checks if this error matches the target.
func (e *StateError) Is(target error) bool {
	if _, ok := target.(*StateError); ok {
		return true
	}
	if target == ErrInvalidState {
		return true
	}
	return e.baseError.Is(target)
}

// PoolError represents errors raised by the worker pool.
//
// Example:
//
//	err := errors.NewPoolError("submit rejected", errors.ErrPoolShutdown).WithPool("trials")
//	err := errors.NewPoolError("task failed", cause).WithWorker(3)
type PoolError struct {
	baseError
	Pool     string
	WorkerID int
	hasWork  bool
}

// NewPoolError creates a new PoolError.
func NewPoolError(message string, cause error) *PoolError {
	return &PoolError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithPool adds the pool name to the error context.
func (e *PoolError) WithPool(name string) *PoolError {
	e.Pool = name
	return e
}

// WithWorker adds the worker id to the error context.
func (e *PoolError) WithWorker(id int) *PoolError {
	e.WorkerID = id
	e.hasWork = true
	return e
}

// WithSeverity sets the error severity.
func (e *PoolError) WithSeverity(s Severity) *PoolError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *PoolError) Error() string {
	var parts []string
	if e.Pool != "" {
		parts = append(parts, fmt.Sprintf("pool=%s", e.Pool))
	}
	if e.hasWork {
		parts = append(parts, fmt.Sprintf("worker=%d", e.WorkerID))
	}
	return e.formatWithContext("pool error", parts)
}

// Is checks if this error matches the target.
func (e *PoolError) Is(target error) bool {
	if _, ok := target.(*PoolError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TrialError wraps the failure of one trial with its round and slot.
// Trials are independent, so a failed trial is retryable in principle, but
// the driver never retries: losing one sample is statistically negligible.
//
// Example:
//
//	err := errors.NewTrialError(cause).WithRound(4).WithSlot(2).WithSeed(99)
type TrialError struct {
	baseError
	Round int
	Slot  int
	Seed  uint64
}

// NewTrialError creates a new TrialError.
func NewTrialError(cause error) *TrialError {
	return &TrialError{
		baseError: baseError{
			message:    ErrTrialFailed.Error(),
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
		Round: -1,
		Slot:  -1,
	}
}

// WithRound adds the round index to the error context.
func (e *TrialError) WithRound(round int) *TrialError {
	e.Round = round
	return e
}

// WithSlot adds the model slot index to the error context.
func (e *TrialError) WithSlot(slot int) *TrialError {
	e.Slot = slot
	return e
}

// WithSeed adds the trial seed so the failure can be replayed.
func (e *TrialError) WithSeed(seed uint64) *TrialError {
	e.Seed = seed
	return e
}

// Error returns the formatted error message.
func (e *TrialError) Error() string {
	var parts []string
	if e.Round >= 0 {
		parts = append(parts, fmt.Sprintf("round=%d", e.Round))
	}
	if e.Slot >= 0 {
		parts = append(parts, fmt.Sprintf("slot=%d", e.Slot))
	}
	if e.Seed != 0 {
		parts = append(parts, fmt.Sprintf("seed=%d", e.Seed))
	}
	return e.formatWithContext("trial error", parts)
}

// Is checks if this error matches the target.
func (e *TrialError) Is(target error) bool {
	if _, ok := target.(*TrialError); ok {
		return true
	}
	if target == ErrTrialFailed {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or parameters.
//
// Example:
//
//	err := errors.NewValidationError("must be within [0, 1]").WithField("p_site").WithValue(1.5)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.formatWithContext("validation error", parts)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var percErr PercolateError
	if As(err, &percErr) {
		return percErr.IsRetryable()
	}
	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    fmt.Fprintln(os.Stderr, err)
//	} else {
//	    logger.Error("internal error", "error", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var percErr PercolateError
	if As(err, &percErr) {
		return percErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement PercolateError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var percErr PercolateError
	if As(err, &percErr) {
		return percErr.Severity()
	}
	return SeverityError
}

// IsContractViolation reports whether err is a programming-contract violation
// (out-of-range access or invalid state) rather than an operational failure.
func IsContractViolation(err error) bool {
	return Is(err, ErrIndexOutOfRange) || Is(err, ErrInvalidState)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to build clusters")
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
