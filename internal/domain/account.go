// internal/domain/account.go
package domain

import (
	"fmt"
	"time"

	"bank-ledger/internal/util"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// AccountStatus defines the lifecycle status of an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusInactive  AccountStatus = "INACTIVE"
	AccountStatusClosed    AccountStatus = "CLOSED"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// IsActive reports whether an account in this status accepts balance mutations.
func (s AccountStatus) IsActive() bool {
	return s == AccountStatusActive
}

// Account represents a bank account as held by the balance store.
type Account struct {
	ID        int64           `db:"id" json:"id"`                 // Primary key, BIGSERIAL in DB
	Balance   decimal.Decimal `db:"balance" json:"balance"`       // Current balance, NUMERIC(19, 2) in DB
	Status    AccountStatus   `db:"status" json:"status"`         // ACTIVE, INACTIVE, CLOSED or SUSPENDED
	Version   int64           `db:"version" json:"version"`       // Optimistic concurrency token
	CreatedAt time.Time       `db:"created_at" json:"created_at"` // Timestamp of creation
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"` // Timestamp of last update
}

// Snapshot returns the immutable view of the account used by the engine.
func (a *Account) Snapshot() BalanceSnapshot {
	return BalanceSnapshot{
		AccountID: a.ID,
		Balance:   a.Balance,
		Status:    a.Status,
		Version:   a.Version,
	}
}

// BalanceSnapshot is a point-in-time read of an account. Version must be presented
// back to the balance store on the next write.
type BalanceSnapshot struct {
	AccountID int64           `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Status    AccountStatus   `json:"status"`
	Version   int64           `json:"version"`
}

// Credit returns balance increased by amount. There is no upper bound on the balance;
// amount must pass ValidateAmount.
func Credit(balance, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAmount(amount); err != nil {
		return balance, fmt.Errorf("credit: %w", err)
	}
	return balance.Add(amount), nil
}

// Debit returns balance decreased by amount. A debit of the whole balance is allowed
// and leaves exactly zero; anything more is an InsufficientFundsError.
func Debit(balance, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAmount(amount); err != nil {
		return balance, fmt.Errorf("debit: %w", err)
	}
	if balance.LessThan(amount) {
		return balance, &util.InsufficientFundsError{Available: balance, Requested: amount}
	}
	return balance.Sub(amount), nil
}

// ApplyDelta dispatches a signed delta to Credit or Debit. A zero delta is rejected, and so
// is one with more than two decimal places: stores never round.
func ApplyDelta(balance, delta decimal.Decimal) (decimal.Decimal, error) {
	if delta.IsNegative() {
		return Debit(balance, delta.Neg())
	}
	return Credit(balance, delta)
}
