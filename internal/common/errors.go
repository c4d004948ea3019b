// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflicting update")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Review errors.
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoActiveWindow   = errors.New("no review window in progress")
	ErrPrecondition     = errors.New("precondition violated")
	ErrConcurrentChange = errors.New("transaction changed since scan")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// InputValidationError rejects a request before anything is mutated.
type InputValidationError struct {
	Field   string
	Message string
}

func (e *InputValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidInput.
func (e *InputValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewInputValidationError creates a validation error for field.
func NewInputValidationError(field, format string, args ...any) error {
	return &InputValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConcurrentModificationError reports a transaction that was deleted or
// re-categorized between scan and resolve.
type ConcurrentModificationError struct {
	Err           error
	TransactionID string
}

func (e *ConcurrentModificationError) Error() string {
	if e.TransactionID == "" {
		return fmt.Sprintf("transaction changed since scan: %v", e.Err)
	}
	return fmt.Sprintf("transaction %s changed since scan: %v", e.TransactionID, e.Err)
}

func (e *ConcurrentModificationError) Unwrap() error {
	return e.Err
}

// Is matches ErrConcurrentChange.
func (e *ConcurrentModificationError) Is(target error) bool {
	return target == ErrConcurrentChange
}

// PreconditionViolation is a programming error: the checked range was about
// to be extended while candidates were still outstanding.
type PreconditionViolation struct {
	UserID      string
	WindowID    string
	Outstanding int
}

func (e *PreconditionViolation) Error() string {
	return fmt.Sprintf("cannot extend checked range for user %s: window %s has %d outstanding candidates",
		e.UserID, e.WindowID, e.Outstanding)
}

// Is matches ErrPrecondition.
func (e *PreconditionViolation) Is(target error) bool {
	return target == ErrPrecondition
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
