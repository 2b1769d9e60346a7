// internal/util/errors.go
package util

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Common application-specific errors.
var (
	ErrInvalidInput           = errors.New("invalid input provided")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrInvalidAmountFormat    = errors.New("invalid amount format")
	ErrInvalidTransaction     = errors.New("invalid transaction")
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountNotActive       = errors.New("account is not active")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrTransactionFailed      = errors.New("transaction failed")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrCompensationFailed     = errors.New("compensation failed, manual reconciliation required")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrDuplicateEntry         = errors.New("duplicate entry") // e.g. a transaction reference that already exists
	ErrReferenceExhausted     = errors.New("could not generate a unique transaction reference")
)

// InsufficientFundsError reports the balance that was available when a debit was rejected.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, requested %s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

// Is lets errors.Is(err, ErrInsufficientFunds) match.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// Error codes shared by the HTTP API and the remote balance client.
const (
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeInvalidAmountFormat    = "INVALID_AMOUNT_FORMAT"
	CodeInvalidTransaction     = "INVALID_TRANSACTION"
	CodeAccountNotFound        = "ACCOUNT_NOT_FOUND"
	CodeAccountNotActive       = "ACCOUNT_NOT_ACTIVE"
	CodeInsufficientFunds      = "INSUFFICIENT_FUNDS"
	CodeTransactionFailed      = "TRANSACTION_FAILED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeCompensationFailed     = "COMPENSATION_FAILED"
	CodeTransactionNotFound    = "TRANSACTION_NOT_FOUND"
	CodeInternal               = "INTERNAL_ERROR"
)

// errorCodes is checked in order; compensation failure must win over anything it wraps.
var errorCodes = []struct {
	err  error
	code string
}{
	{ErrCompensationFailed, CodeCompensationFailed},
	{ErrTransactionFailed, CodeTransactionFailed},
	{ErrInvalidAmountFormat, CodeInvalidAmountFormat},
	{ErrInvalidAmount, CodeInvalidAmount},
	{ErrInvalidTransaction, CodeInvalidTransaction},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrAccountNotFound, CodeAccountNotFound},
	{ErrAccountNotActive, CodeAccountNotActive},
	{ErrInsufficientFunds, CodeInsufficientFunds},
	{ErrConcurrentModification, CodeConcurrentModification},
	{ErrTransactionNotFound, CodeTransactionNotFound},
}

// ErrorCode returns the stable code for err, or CodeInternal when err is not part of the taxonomy.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// ErrorFromCode maps a code back to its sentinel. Unknown codes return nil.
func ErrorFromCode(code string) error {
	for _, ec := range errorCodes {
		if ec.code == code {
			return ec.err
		}
	}
	return nil
}
