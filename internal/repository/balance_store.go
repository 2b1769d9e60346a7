// internal/repository/balance_store.go
package repository

import (
	"context"

	"bank-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// BalanceStore is the authoritative holder of account balances and statuses.
// It may be a local table or a network call to an independent account service.
type BalanceStore interface {
	// GetBalance returns the current balance, status and version token.
	// It fails with util.ErrAccountNotFound.
	GetBalance(ctx context.Context, accountID int64) (domain.BalanceSnapshot, error)
	// ApplyDelta adds a signed delta to the balance if the stored version still equals
	// expectedVersion, returning the new version. It re-validates status and funds itself and
	// fails with util.ErrAccountNotFound, util.ErrAccountNotActive, util.ErrInsufficientFunds,
	// util.ErrConcurrentModification or a generic adapter error.
	ApplyDelta(ctx context.Context, accountID int64, delta decimal.Decimal, expectedVersion int64) (int64, error)
}
