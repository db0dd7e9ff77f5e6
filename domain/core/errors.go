package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Validation errors
	ErrValidation       = errors.New("validation failed")
	ErrMisalignedPanels = fmt.Errorf("%w: panels are not aligned", ErrValidation)
	ErrEmptyPanel       = fmt.Errorf("%w: panel has no data", ErrValidation)
	ErrUnknownMethod    = fmt.Errorf("%w: unknown method", ErrValidation)

	// Lifecycle errors
	ErrNotComputed = errors.New("result not computed")
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrValidation, field, reason)
}

func NewAlignmentError(detail string) error {
	return fmt.Errorf("%w: %s", ErrMisalignedPanels, detail)
}

func NewUnknownMethodError(kind string, value string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownMethod, kind, value)
}

func NewNotComputedError(what string, call string) error {
	return fmt.Errorf("%w: %s requires a prior call to %s", ErrNotComputed, what, call)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotComputedError(err error) bool {
	return errors.Is(err, ErrNotComputed)
}
