// internal/service/query.go
package service

import (
	"context"
	"fmt"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/util"
)

// GetByID retrieves a transaction by ID.
func (s *transactionService) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	tx, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

// GetByReference retrieves a transaction by its reference.
func (s *transactionService) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	tx, err := s.ledger.FindByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", reference, err)
	}
	return tx, nil
}

// ListByAccount returns the account's transactions, newest first.
func (s *transactionService) ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	txs, err := s.ledger.FindAllByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions of account %d: %w", accountID, err)
	}
	return txs, nil
}

// ListByAccountAndDateRange returns the account's transactions created within [from, to].
func (s *transactionService) ListByAccountAndDateRange(ctx context.Context, accountID int64, from, to time.Time) ([]domain.Transaction, error) {
	if from.After(to) {
		return nil, fmt.Errorf("start %s is after end %s: %w", from.Format(time.RFC3339), to.Format(time.RFC3339), util.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	txs, err := s.ledger.FindByAccountAndDateRange(ctx, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions of account %d in range: %w", accountID, err)
	}
	return txs, nil
}

// ListAll returns every transaction, newest first.
func (s *transactionService) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	txs, err := s.ledger.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
