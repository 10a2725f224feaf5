package api

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, matched with errors.Is.
var (
	// ErrGeneratorNotFound is returned when an effect name is not registered
	// in the bank being consulted.
	ErrGeneratorNotFound = errors.New("effect generator not found")

	// ErrTagNotFound is returned by timeline tag jumps when no sequence
	// carries the requested tag.
	ErrTagNotFound = errors.New("sequence tag not found")

	// ErrJournalClosed is returned on appends or reads after a journal store
	// has been closed.
	ErrJournalClosed = errors.New("journal is closed")
)

// ConfigurationError reports invalid effect or generator configuration,
// detected at registration, construction, or composition time.
type ConfigurationError struct {
	// Effect is the effect name, when one is in scope.
	Effect string
	Detail string
}

func (e *ConfigurationError) Error() string {
	if e.Effect == "" {
		return "configuration: " + e.Detail
	}
	return fmt.Sprintf("configuration: effect %q: %s", e.Effect, e.Detail)
}

// PreconditionError reports a target in the wrong state for the requested
// playback, such as entering an element that is not hidden.
type PreconditionError struct {
	Category Category
	Target   string
	Detail   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition: %s clip on target %q: %s", e.Category, e.Target, e.Detail)
}

// OperationConflictError reports an operation that is invalid in the current
// playback state, such as playing a clip that is already in flight.
type OperationConflictError struct {
	// Op names the rejected operation.
	Op string

	// State describes the conflicting state.
	State string
}

func (e *OperationConflictError) Error() string {
	return fmt.Sprintf("cannot %s: %s", e.Op, e.State)
}

// RangeError reports a field value outside its accepted set.
type RangeError struct {
	Field    string
	Value    string
	Accepted []string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("field %q: value %q not accepted (accepted: %s)",
		e.Field, e.Value, strings.Join(e.Accepted, ", "))
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsPreconditionError reports whether err wraps a PreconditionError.
func IsPreconditionError(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}

// IsOperationConflict reports whether err wraps an OperationConflictError.
func IsOperationConflict(err error) bool {
	var target *OperationConflictError
	return errors.As(err, &target)
}

// IsRangeError reports whether err wraps a RangeError.
func IsRangeError(err error) bool {
	var target *RangeError
	return errors.As(err, &target)
}
