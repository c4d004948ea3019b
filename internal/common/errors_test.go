package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		err       error
		target    error
		name      string
		wantMatch bool
	}{
		{
			name:      "validation error matches invalid input",
			err:       NewInputValidationError("window", "end before start"),
			target:    ErrInvalidInput,
			wantMatch: true,
		},
		{
			name:      "wrapped validation error still matches",
			err:       fmt.Errorf("resolve: %w", NewInputValidationError("key", "unknown")),
			target:    ErrInvalidInput,
			wantMatch: true,
		},
		{
			name:      "concurrent modification matches its sentinel",
			err:       &ConcurrentModificationError{TransactionID: "tx-1", Err: ErrNotFound},
			target:    ErrConcurrentChange,
			wantMatch: true,
		},
		{
			name:      "concurrent modification unwraps to the cause",
			err:       &ConcurrentModificationError{TransactionID: "tx-1", Err: ErrNotFound},
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "precondition violation",
			err:       &PreconditionViolation{UserID: "alice", WindowID: "w", Outstanding: 2},
			target:    ErrPrecondition,
			wantMatch: true,
		},
		{
			name:   "validation is not a precondition violation",
			err:    NewInputValidationError("key", "unknown"),
			target: ErrPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMatch, errors.Is(tt.err, tt.target))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "invalid window: end before start", NewInputValidationError("window", "end before start").Error())
	assert.Equal(t, "invalid input: empty", (&InputValidationError{Message: "empty"}).Error())
	assert.Equal(t, "transaction tx-1 changed since scan: not found",
		(&ConcurrentModificationError{TransactionID: "tx-1", Err: ErrNotFound}).Error())
	assert.Equal(t, "run scan first: not found", NewUserError("run scan first", ErrNotFound).Error())
	assert.Equal(t, "caught up", NewUserError("caught up", nil).Error())
	assert.ErrorIs(t, NewUserError("bad key", NewInputValidationError("pair", "unknown")), ErrInvalidInput)
	assert.Contains(t, (&PreconditionViolation{UserID: "alice", WindowID: "w-1", Outstanding: 2}).Error(),
		"window w-1 has 2 outstanding candidates")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "marked retryable", err: Retryable(errors.New("database is locked")), want: true},
		{name: "wrapped retryable", err: fmt.Errorf("mark: %w", Retryable(errors.New("busy"))), want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "plain error", err: errors.New("boom")},
		{name: "not found", err: ErrNotFound},
		{name: "explicitly not retryable", err: &RetryableError{Err: errors.New("x"), Retryable: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}

	assert.NoError(t, Retryable(nil))
}
