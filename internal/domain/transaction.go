// internal/domain/transaction.go
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType defines the type of a financial transaction.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
)

// DefaultDescription is recorded when the caller supplies none.
func (t TransactionType) DefaultDescription() string {
	switch t {
	case TransactionTypeDeposit:
		return "Deposit"
	case TransactionTypeWithdrawal:
		return "Withdrawal"
	case TransactionTypeTransfer:
		return "Transfer"
	default:
		return string(t)
	}
}

// TransactionStatus defines the status of a financial transaction.
// PENDING is the only non-terminal state.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

const (
	// MaxDescriptionLength and MaxFailureReasonLength match the VARCHAR(500) columns.
	MaxDescriptionLength   = 500
	MaxFailureReasonLength = 500
)

// Transaction represents a financial transaction record.
type Transaction struct {
	ID                      int64             `db:"id" json:"id"`                                               // Primary key, assigned on first persist
	Reference               string            `db:"transaction_reference" json:"transaction_reference"`         // Client-visible, unique, immutable
	Type                    TransactionType   `db:"transaction_type" json:"transaction_type"`                   // DEPOSIT, WITHDRAWAL, TRANSFER
	Amount                  decimal.Decimal   `db:"amount" json:"amount"`                                       // NUMERIC(19, 2), strictly positive
	SourceAccountID         int64             `db:"source_account_id" json:"source_account_id"`                 // Always present
	DestinationAccountID    *int64            `db:"destination_account_id" json:"destination_account_id"`       // TRANSFER only
	Description             string            `db:"description" json:"description"`                             // Free text, max 500 chars
	Status                  TransactionStatus `db:"status" json:"status"`                                       // PENDING, COMPLETED, FAILED
	FailureReason           *string           `db:"failure_reason" json:"failure_reason"`                       // Set only when FAILED
	BalanceAfterTransaction decimal.Decimal   `db:"balance_after_transaction" json:"balance_after_transaction"` // Source balance snapshot
	CreatedAt               time.Time         `db:"created_at" json:"created_at"`                               // Set once
	UpdatedAt               time.Time         `db:"updated_at" json:"updated_at"`                               // Audit metadata
	CompletedAt             *time.Time        `db:"completed_at" json:"completed_at"`                           // Set on COMPLETED
}

// NewTransaction creates a new PENDING Transaction. The reference is assigned by the caller.
func NewTransaction(
	reference string,
	txType TransactionType,
	amount decimal.Decimal,
	sourceAccountID int64,
	destinationAccountID *int64,
	description string,
	balanceAfter decimal.Decimal,
	now time.Time,
) *Transaction {
	if description == "" {
		description = txType.DefaultDescription()
	}
	now = now.UTC()
	return &Transaction{
		Reference:               reference,
		Type:                    txType,
		Amount:                  amount,
		SourceAccountID:         sourceAccountID,
		DestinationAccountID:    destinationAccountID,
		Description:             description,
		Status:                  TransactionStatusPending,
		BalanceAfterTransaction: balanceAfter,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

// IsTerminal reports whether the transaction has reached COMPLETED or FAILED.
func (t *Transaction) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// Complete moves a PENDING transaction to COMPLETED.
// Completing a terminal transaction is a programming error and panics.
func (t *Transaction) Complete(balanceAfter decimal.Decimal, at time.Time) {
	t.mustBePending("complete")
	at = at.UTC()
	t.Status = TransactionStatusCompleted
	t.BalanceAfterTransaction = balanceAfter
	t.CompletedAt = &at
	t.UpdatedAt = at
}

// Fail moves a PENDING transaction to FAILED with reason, truncated to the column width.
// Failing a terminal transaction is a programming error and panics.
func (t *Transaction) Fail(reason string, at time.Time) {
	t.mustBePending("fail")
	if r := []rune(reason); len(r) > MaxFailureReasonLength {
		reason = string(r[:MaxFailureReasonLength])
	}
	t.Status = TransactionStatusFailed
	t.FailureReason = &reason
	t.UpdatedAt = at.UTC()
}

func (t *Transaction) mustBePending(op string) {
	if t.Status != TransactionStatusPending {
		panic(fmt.Sprintf("domain: cannot %s transaction %q in terminal state %s", op, t.Reference, t.Status))
	}
}

// Involves reports whether accountID is the source or destination of the transaction.
func (t *Transaction) Involves(accountID int64) bool {
	if t.SourceAccountID == accountID {
		return true
	}
	return t.DestinationAccountID != nil && *t.DestinationAccountID == accountID
}
