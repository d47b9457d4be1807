/*
errors.go - Centralized error types for the offset engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  None of these is fatal: each is either recovered inside the engine
  (fallback type, default state) or surfaced to the caller for display.

ERROR CATEGORIES:
  1. Registry errors - Unknown or invalid offset types
  2. Store errors - Unknown strategy ids, invalid updates
  3. Persistence errors - Missing or malformed saved state

USAGE:
    if errors.Is(err, offset.ErrStrategyNotFound) {
        // 404
    }

SEE ALSO:
  - registry.go: Returns UnknownStrategyTypeError
  - codec.go: Returns MalformedStateError
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package offset

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownStrategyType is returned when a type name has no registry entry.
	// Callers recover by falling back to Registry.Default().
	ErrUnknownStrategyType = errors.New("unknown strategy type")

	// ErrInvalidOffsetType is returned when a registry is built from bad definitions.
	ErrInvalidOffsetType = errors.New("invalid offset type definition")

	// ErrStrategyNotFound is returned when an update targets an id not in the store.
	ErrStrategyNotFound = errors.New("strategy not found")

	// ErrInvalidUpdate is returned for an unknown field or an unparsable value.
	ErrInvalidUpdate = errors.New("invalid strategy update")

	// ErrNoSavedState is returned by persisters when nothing was ever saved.
	ErrNoSavedState = errors.New("no saved state")

	// ErrMalformedPersistedState is returned when a saved payload cannot be decoded.
	ErrMalformedPersistedState = errors.New("malformed persisted state")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownStrategyTypeError names the type that failed to resolve.
type UnknownStrategyTypeError struct {
	Name string
}

func (e *UnknownStrategyTypeError) Error() string {
	return fmt.Sprintf("unknown strategy type %q", e.Name)
}

func (e *UnknownStrategyTypeError) Unwrap() error {
	return ErrUnknownStrategyType
}

// InvalidUpdateError describes a rejected Update call.
type InvalidUpdateError struct {
	Field  Field
	Value  string
	Reason string
}

func (e *InvalidUpdateError) Error() string {
	return fmt.Sprintf("invalid update of %q to %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidUpdateError) Unwrap() error {
	return ErrInvalidUpdate
}

// MalformedStateError wraps the decoding failure of a persisted payload.
type MalformedStateError struct {
	Cause error
}

func (e *MalformedStateError) Error() string {
	return fmt.Sprintf("malformed persisted state: %v", e.Cause)
}

func (e *MalformedStateError) Unwrap() []error {
	return []error{ErrMalformedPersistedState, e.Cause}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidUpdate) ||
		errors.Is(err, ErrUnknownStrategyType)
}

// IsNotFound returns true if the error indicates a missing strategy.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStrategyNotFound)
}
