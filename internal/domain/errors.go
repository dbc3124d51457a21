package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrNotFound = errors.New("not found")

	// ErrResultContract is the panic value (wrapped) when a Result is read
	// on the wrong side.
	ErrResultContract = errors.New("result contract violation")
)

// ConflictError is returned by repositories when a unique constraint rejects a write.
type ConflictError struct {
	Resource string
	Field    string
	Value    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Resource, e.Field, e.Value)
}

// TransitionError is returned when a watch status change is not allowed.
type TransitionError struct {
	Event   StatusEvent
	Current WatchStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}
