// internal/domain/money.go
package domain

import (
	"fmt"

	"bank-ledger/internal/util"

	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the number of fractional digits every amount and balance carries.
	AmountScale = 2
	// MaxAmountIntegerDigits bounds the integer part of a requested amount (NUMERIC(19,2) minus headroom).
	MaxAmountIntegerDigits = 15
)

var maxAmount = decimal.New(1, MaxAmountIntegerDigits) // 10^15, exclusive

// ValidateAmount checks a requested movement amount: strictly positive, no more than
// two significant fractional digits, and at most fifteen integer digits.
// Amounts with extra precision are rejected, never rounded.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", util.ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", util.ErrInvalidAmountFormat, amount.String(), AmountScale)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: %s exceeds %d integer digits", util.ErrInvalidAmountFormat, amount.String(), MaxAmountIntegerDigits)
	}
	return nil
}

// Normalize returns amount with exactly AmountScale fractional digits.
// Callers must have validated the amount first.
func Normalize(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(AmountScale)
}
