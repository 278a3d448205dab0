package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAssetNotFound       = fmt.Errorf("asset %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)

	ErrValidation           = errors.New("validation failed")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrAlreadyPaid          = errors.New("reservation already paid")
	ErrAlreadySubmitted     = errors.New("feedback already submitted")
	ErrInvalidState         = errors.New("reservation not in a valid state")
	ErrStorageUnavailable   = errors.New("storage unavailable")

	// ErrDuplicateReference means a generated reference code collided; callers retry.
	ErrDuplicateReference = errors.New("duplicate reference")
)

// ValidationError reports malformed input. It is returned before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InsufficientCapacityError is returned when admission would overbook an asset.
type InsufficientCapacityError struct {
	Remaining int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient units available: %d remaining for these dates", e.Remaining)
}

func (e *InsufficientCapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}
