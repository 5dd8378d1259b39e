package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found or is owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation marks malformed input or a failed business precondition.
	ErrValidation = errors.New("validation failed")
	// ErrCartEmpty is returned when checking out a cart without lines.
	ErrCartEmpty = fmt.Errorf("%w: cart is empty", ErrValidation)
	// ErrInvalidTransition is returned for status changes outside the lifecycle table.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotCancellable is returned when cancelling an order that is no longer pending.
	ErrNotCancellable = errors.New("order cannot be cancelled")
	// ErrForbidden is returned for privileged operations that are switched off.
	ErrForbidden = errors.New("operation not permitted")
	// ErrConflict signals that a concurrent write changed the data this request relied on.
	ErrConflict = errors.New("concurrent modification")
)
