// Package errors provides the error taxonomy used across subterra.
// It extends the standard errors package with sentinel values for each failure
// class of a discovery run and with context wrapping helpers.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes of a run.
var (
	// ErrInvalidTarget indicates the target domain failed validation.
	// It aborts a run before any source is started.
	ErrInvalidTarget = errors.New("invalid target domain")

	// ErrInvalidConfig indicates a malformed configuration (source definition,
	// prober settings, config file).
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSourceFailed indicates an external source exited non-zero or could not start.
	// Never fatal to a run.
	ErrSourceFailed = errors.New("source failed")

	// ErrSourceTimeout indicates an external source exceeded its time budget.
	// Never fatal to a run.
	ErrSourceTimeout = errors.New("source timed out")

	// ErrProbeFailed indicates a single liveness check could not complete.
	// The name is treated as not live.
	ErrProbeFailed = errors.New("probe failed")

	// ErrMergeIO indicates the persisted name set could not be written.
	// It aborts a run; the last committed state stays on disk.
	ErrMergeIO = errors.New("merge persistence failed")

	// ErrReportWrite indicates the run report or metrics file could not be written.
	// The name sets are already committed when it happens.
	ErrReportWrite = errors.New("report write failed")

	// ErrTimeout indicates an operation exceeded its time limit
	ErrTimeout = errors.New("operation timed out")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")
)

// wrappedError wraps an error with additional context
type wrappedError struct {
	msg   string
	cause error
}

// Error implements the error interface
func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap returns the underlying error
func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Wrap wraps an error with additional context message.
// If err is nil, Wrap returns nil.
//
// Example:
//
//	if err := store.Merge(names); err != nil {
//	    return errors.Wrap(err, "merge source output")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg:   msg,
		cause: err,
	}
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is from the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type.
// This is a convenience wrapper around errors.As from the standard library.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New creates a new error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf formats according to a format specifier and returns the string as a value that satisfies error.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Join returns an error that wraps the given errors.
// Any nil error values are discarded.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsConfigError reports whether err is a configuration class error
// (invalid target or malformed configuration).
func IsConfigError(err error) bool {
	return Is(err, ErrInvalidTarget) || Is(err, ErrInvalidConfig)
}

// IsMergeIO reports whether err is a persistence failure of a name set.
func IsMergeIO(err error) bool {
	return Is(err, ErrMergeIO)
}

// IsReportError reports whether err is a report or metrics write failure.
func IsReportError(err error) bool {
	return Is(err, ErrReportWrite)
}

// IsSourceError reports whether err belongs to the per-source failure class.
func IsSourceError(err error) bool {
	return Is(err, ErrSourceFailed) || Is(err, ErrSourceTimeout)
}

// IsTimeout reports whether the error is a timeout error
func IsTimeout(err error) bool {
	return Is(err, ErrTimeout) || Is(err, ErrSourceTimeout)
}

// IsNotFound reports whether the error is a not found error
func IsNotFound(err error) bool {
	return Is(err, ErrNotFound)
}

// IsFatal reports whether err must terminate a run.
// Only configuration errors and merge persistence failures are fatal.
func IsFatal(err error) bool {
	return IsConfigError(err) || IsMergeIO(err)
}
