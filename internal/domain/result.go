package domain

import "fmt"

// FailureKind classifies an expected failure so boundary adapters can map it
// to a response without parsing the message.
type FailureKind string

const (
	FailureInvalid         FailureKind = "invalid"
	FailureNotFound        FailureKind = "not_found"
	FailureConflict        FailureKind = "conflict"
	FailureUnauthenticated FailureKind = "unauthenticated"
)

// Outcome is satisfied by every Result regardless of its value type.
// Cross-cutting code (logging, transactions) inspects results through it.
type Outcome interface {
	IsSuccess() bool
	IsFailure() bool
	Message() string
	Kind() FailureKind
}

// Result is the outcome of an operation that can fail in an anticipated way.
// Exactly one of value and message is meaningful. The zero value is a failure
// with an empty message.
type Result[T any] struct {
	value   T
	message string
	kind    FailureKind
	ok      bool
}

// Success wraps a value in a successful Result.
func Success[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Failure builds a validation failure with a user-facing message.
func Failure[T any](message string) Result[T] {
	return Fail[T](FailureInvalid, message)
}

// Fail builds a failure of the given kind.
func Fail[T any](kind FailureKind, message string) Result[T] {
	return Result[T]{message: message, kind: kind}
}

// NotFound builds a FailureNotFound result.
func NotFound[T any](message string) Result[T] { return Fail[T](FailureNotFound, message) }

// Conflict builds a FailureConflict result.
func Conflict[T any](message string) Result[T] { return Fail[T](FailureConflict, message) }

// Unauthenticated builds a FailureUnauthenticated result.
func Unauthenticated[T any](message string) Result[T] {
	return Fail[T](FailureUnauthenticated, message)
}

// FailureOf re-types a failed Result, keeping its kind and message.
// It panics if r is a success.
func FailureOf[U, T any](r Result[T]) Result[U] {
	if r.ok {
		panic(fmt.Errorf("%w: FailureOf called on a success", ErrResultContract))
	}
	return Fail[U](r.Kind(), r.message)
}

// IsSuccess reports whether r holds a value.
func (r Result[T]) IsSuccess() bool { return r.ok }

// IsFailure reports whether r holds a message.
func (r Result[T]) IsFailure() bool { return !r.ok }

// Value returns the success value. It panics on a failure.
func (r Result[T]) Value() T {
	if !r.ok {
		panic(fmt.Errorf("%w: value accessed on failure %q", ErrResultContract, r.message))
	}
	return r.value
}

// Message returns the failure message. It panics on a success.
func (r Result[T]) Message() string {
	if r.ok {
		panic(fmt.Errorf("%w: message accessed on success", ErrResultContract))
	}
	return r.message
}

// Kind returns the failure kind, or "" for a success.
func (r Result[T]) Kind() FailureKind {
	if r.ok {
		return ""
	}
	if r.kind == "" {
		return FailureInvalid
	}
	return r.kind
}

// ValueOr returns the success value, or fallback on a failure.
func (r Result[T]) ValueOr(fallback T) T {
	if !r.ok {
		return fallback
	}
	return r.value
}

// Match folds the result into a single value.
func Match[T, U any](r Result[T], onSuccess func(T) U, onFailure func(FailureKind, string) U) U {
	if r.ok {
		return onSuccess(r.value)
	}
	return onFailure(r.Kind(), r.message)
}
