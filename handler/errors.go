package handler

import (
	"errors"
	"fmt"
)

// Sentinel errors for pool operations.
var (
	// ErrNotRegistered is returned when building a handler whose identifier
	// has no registration.
	ErrNotRegistered = errors.New("handler: handler is not registered")

	// ErrInvalidRegistration is returned for empty identifiers, nil
	// prototypes or factories, or prototypes that are not pointers to structs.
	ErrInvalidRegistration = errors.New("handler: invalid registration")

	// ErrNoRegistry is returned when a dependency lookup is attempted on a
	// pool configured without a registry.
	ErrNoRegistry = errors.New("handler: no registry configured")
)

// UnresolvableDependencyError reports a required constructor dependency
// that could not be satisfied: the registry cannot produce the declared
// type and the parameter has no default. Construction is all-or-nothing,
// so the whole build fails; no partial instance is produced.
type UnresolvableDependencyError struct {
	// Class is the handler identifier being built.
	Class string

	// Param is the name of the unresolvable parameter.
	Param string

	// Position is the parameter's 0-based position.
	Position int

	// Reason is the underlying registry failure, if any.
	Reason error
}

func (e *UnresolvableDependencyError) Error() string {
	return fmt.Sprintf("handler: cannot resolve required parameter %q (position %d) of %q", e.Param, e.Position, e.Class)
}

// Unwrap returns the underlying registry failure, if any.
func (e *UnresolvableDependencyError) Unwrap() error {
	return e.Reason
}
