package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUnknownView signals a view name absent from configuration.
	ErrUnknownView = errors.New("unknown view")
	// ErrInvalidName signals a saved-search name outside the allowed alphabet.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidRequest signals a request that cannot be applied to a query.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrLimitExceeded signals a per-view capacity limit.
	ErrLimitExceeded = errors.New("limit exceeded")
)

// UnknownViewError wraps ErrUnknownView with the requested view name.
type UnknownViewError struct {
	View string
}

func (e *UnknownViewError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownView.Error(), e.View)
}

func (e *UnknownViewError) Unwrap() error { return ErrUnknownView }

// NewUnknownView creates an unknown view error.
func NewUnknownView(view string) error {
	return &UnknownViewError{View: view}
}
