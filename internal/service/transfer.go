// internal/service/transfer.go
package service

import (
	"context"
	"fmt"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/events"
	"bank-ledger/internal/util"

	"github.com/shopspring/decimal"
)

// Transfer moves amount from the source to the destination account as a saga: debit the
// source, credit the destination, and if the credit fails credit the source back.
// Between the two steps the source is debited and the destination is not yet credited.
func (s *transactionService) Transfer(ctx context.Context, sourceAccountID, destinationAccountID int64, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	const txType = domain.TransactionTypeTransfer
	start := s.now()

	amount, err := validateRequest(amount, description)
	if err != nil {
		return nil, s.reject(txType, err)
	}
	if sourceAccountID == destinationAccountID {
		return nil, s.reject(txType, fmt.Errorf("source and destination are both account %d: %w", sourceAccountID, util.ErrInvalidTransaction))
	}

	source, err := s.readActive(ctx, sourceAccountID)
	if err != nil {
		return nil, s.reject(txType, err)
	}
	prospective, err := domain.Debit(source.Balance, amount)
	if err != nil {
		return nil, s.reject(txType, err)
	}
	destination, err := s.readActive(ctx, destinationAccountID)
	if err != nil {
		return nil, s.reject(txType, err)
	}

	tx, err := s.open(ctx, txType, amount, sourceAccountID, &destinationAccountID, description, prospective)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)

	sourceAfter, err := s.mutate(ctx, sourceAccountID, amount.Neg(), &source)
	if err != nil {
		return nil, s.fail(ctx, tx, fmt.Sprintf("debit of source account %d failed: %v", sourceAccountID, err), err, start)
	}

	if _, err := s.mutate(ctx, destinationAccountID, amount, &destination); err != nil {
		return nil, s.compensate(ctx, tx, err, start)
	}
	return s.complete(ctx, tx, sourceAfter, start)
}

// compensate credits a transfer's amount back to its source after the destination credit failed.
func (s *transactionService) compensate(ctx context.Context, tx *domain.Transaction, creditErr error, start time.Time) error {
	destinationAccountID := *tx.DestinationAccountID
	s.logger.Warn("Transfer credit failed, compensating source account",
		"reference", tx.Reference,
		"source_account_id", tx.SourceAccountID,
		"destination_account_id", destinationAccountID,
		"amount", tx.Amount.StringFixed(2),
		"error", creditErr,
	)

	if _, err := s.mutate(ctx, tx.SourceAccountID, tx.Amount, nil); err != nil {
		s.metrics.ObserveCompensation(false)
		return s.compensationFailed(ctx, tx, creditErr, err, start)
	}
	s.metrics.ObserveCompensation(true)

	reason := fmt.Sprintf("credit of destination account %d failed: %v; source account %d restored by compensating credit",
		destinationAccountID, creditErr, tx.SourceAccountID)
	return s.fail(ctx, tx, reason, creditErr, start)
}

// compensationFailed records a transfer that left the source debited and the destination
// uncredited. It is logged as an alert since only an operator can repair it.
func (s *transactionService) compensationFailed(ctx context.Context, tx *domain.Transaction, creditErr, compensationErr error, start time.Time) error {
	reason := fmt.Sprintf("%s: credit of destination account %d failed: %v; compensating credit of source account %d failed: %v",
		CompensationFailedReason, *tx.DestinationAccountID, creditErr, tx.SourceAccountID, compensationErr)
	tx.Fail(reason, s.now())
	_ = s.finish(ctx, tx, events.EventTransactionCompensationFailed, start)

	s.logger.Error("Transfer compensation failed, ledger and balances are inconsistent",
		"alert", true,
		"action", "manual_reconciliation",
		"reference", tx.Reference,
		"transaction_id", tx.ID,
		"source_account_id", tx.SourceAccountID,
		"destination_account_id", *tx.DestinationAccountID,
		"amount", tx.Amount.StringFixed(2),
		"credit_error", creditErr,
		"compensation_error", compensationErr,
	)
	return &CompensationFailedError{Transaction: tx, CreditErr: creditErr, CompensationErr: compensationErr}
}
