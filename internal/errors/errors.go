// Package apperrors defines the exit codes and the error taxonomy shared by
// the sampler, the configuration layer and the application entry point.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess       = 0
	ExitErrorGeneric  = 1
	ExitErrorConfig   = 4
	ExitErrorCanceled = 130
)

// Sampler failures. None of them stops the collection loop: the affected
// family keeps its previous values until the next cycle.
var (
	// ErrSourceUnavailable means a snapshot source could not be opened or read.
	ErrSourceUnavailable = errors.New("snapshot source unavailable")
	// ErrNameNotFound means the configured CPU or interface label is absent
	// from the snapshot.
	ErrNameNotFound = errors.New("name not found in snapshot")
	// ErrMalformedSample means a line carried fewer tokens than expected, or
	// a token did not parse. The parsed value is still usable.
	ErrMalformedSample = errors.New("malformed sample")
)

// ConfigError represents a user configuration error, such as an invalid flag
// value or an unreadable configuration file.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce ConfigError
	return errors.As(err, &ce)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCode maps an error returned by the application to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case IsConfigError(err):
		return ExitErrorConfig
	case IsContextError(err):
		return ExitErrorCanceled
	default:
		return ExitErrorGeneric
	}
}

// SourceError reports a snapshot source that could not be opened or read.
// It matches ErrSourceUnavailable with errors.Is and unwraps to the I/O error.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSourceUnavailable, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }
