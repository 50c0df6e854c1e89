package models

import (
	"errors"
	"fmt"
)

const (
	// ErrCritical invalidates the rest of the pipeline for the
	// current record only.
	ErrCritical = "critical"
	// ErrNonCritical is recorded but does not change the outcome.
	ErrNonCritical = "noncritical"
	// ErrConfiguration means every record will fail the same way.
	ErrConfiguration = "configuration"
)

// ProcessingError describes something that went wrong while
// processing one ETD record.
type ProcessingError struct {
	// Kind is one of ErrCritical, ErrNonCritical or ErrConfiguration.
	Kind string
	// Step is the pipeline step that failed. See constants.Step*.
	Step string
	// Datastream is the id of the datastream being built, if any.
	Datastream string
	Message    string
}

func NewCriticalError(step, format string, a ...interface{}) *ProcessingError {
	return &ProcessingError{
		Kind:    ErrCritical,
		Step:    step,
		Message: fmt.Sprintf(format, a...),
	}
}

func NewNonCriticalError(step, format string, a ...interface{}) *ProcessingError {
	return &ProcessingError{
		Kind:    ErrNonCritical,
		Step:    step,
		Message: fmt.Sprintf(format, a...),
	}
}

func NewConfigError(step, format string, a ...interface{}) *ProcessingError {
	return &ProcessingError{
		Kind:    ErrConfiguration,
		Step:    step,
		Message: fmt.Sprintf(format, a...),
	}
}

// NewDatastreamError returns a critical error tagged with the id of
// the datastream that could not be built.
func NewDatastreamError(step, dsId, format string, a ...interface{}) *ProcessingError {
	err := NewCriticalError(step, format, a...)
	err.Datastream = dsId
	return err
}

func (err *ProcessingError) Error() string {
	if err.Datastream != "" {
		return fmt.Sprintf("[%s] %s %s: %s", err.Kind, err.Step, err.Datastream, err.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", err.Kind, err.Step, err.Message)
}

// IsCritical returns true for critical and configuration errors.
// Both halt processing of the current record.
func (err *ProcessingError) IsCritical() bool {
	return err.Kind == ErrCritical || err.Kind == ErrConfiguration
}

// IsConfigError returns true if err is, or wraps, a configuration error.
func IsConfigError(err error) bool {
	var procErr *ProcessingError
	if errors.As(err, &procErr) {
		return procErr.Kind == ErrConfiguration
	}
	return false
}

// IsCriticalError returns true if err halts processing of a record.
// Errors that are not ProcessingErrors are always critical.
func IsCriticalError(err error) bool {
	if err == nil {
		return false
	}
	var procErr *ProcessingError
	if errors.As(err, &procErr) {
		return procErr.IsCritical()
	}
	return true
}
