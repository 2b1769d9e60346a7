// internal/util/errors_test.go
package util

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInsufficientFundsError(t *testing.T) {
	err := &InsufficientFundsError{
		Available: decimal.RequireFromString("1500"),
		Requested: decimal.RequireFromString("2000"),
	}

	assert.Equal(t, "insufficient funds: available 1500.00, requested 2000.00", err.Error())
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.ErrorIs(t, fmt.Errorf("withdraw: %w", err), ErrInsufficientFunds)

	var target *InsufficientFundsError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &target))
	assert.True(t, target.Available.Equal(decimal.NewFromInt(1500)))
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"InvalidAmount", ErrInvalidAmount, CodeInvalidAmount},
		{"WrappedNotFound", fmt.Errorf("get balance: %w", ErrAccountNotFound), CodeAccountNotFound},
		{"InsufficientFundsStruct", &InsufficientFundsError{}, CodeInsufficientFunds},
		{"CompensationWins", errors.Join(ErrCompensationFailed, ErrConcurrentModification), CodeCompensationFailed},
		{"FailedWrapsCause", errors.Join(ErrTransactionFailed, ErrInsufficientFunds), CodeTransactionFailed},
		{"Unknown", errors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorFromCode(t *testing.T) {
	assert.Equal(t, ErrConcurrentModification, ErrorFromCode(CodeConcurrentModification))
	assert.Equal(t, ErrAccountNotActive, ErrorFromCode(CodeAccountNotActive))
	assert.Nil(t, ErrorFromCode("SOMETHING_ELSE"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
