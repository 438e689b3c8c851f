package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrNotFoundOrForbidden covers a card that is absent or owned by
	// someone else. The two cases are deliberately indistinguishable so
	// callers cannot probe for card existence.
	ErrNotFoundOrForbidden = errors.New("not found or forbidden")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation is a generic sentinel for invalid input, rejected
	// before any store access.
	ErrValidation = errors.New("validation failed")
	// ErrConstraintViolation signals a uniqueness constraint breach on
	// write; the write is rejected, never silently dropped.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrPrecondition signals a missing or malformed source document.
	// It aborts an import run before any writes.
	ErrPrecondition = errors.New("precondition failed")
)
