// internal/service/mutation.go
package service

import (
	"context"
	"errors"
	"fmt"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/util"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
)

// mutate applies delta to an account through a bounded read-validate-write loop and returns
// the balance the write produced. The first attempt uses snapshot when given; every later
// attempt re-reads. Only version conflicts are retried, at most cfg.MaxRetries attempts in all.
func (s *transactionService) mutate(ctx context.Context, accountID int64, delta decimal.Decimal, snapshot *domain.BalanceSnapshot) (decimal.Decimal, error) {
	next := snapshot

	attempt := func() (decimal.Decimal, error) {
		var current domain.BalanceSnapshot
		if next != nil {
			current, next = *next, nil
		} else {
			fresh, err := s.readBalance(ctx, accountID)
			if err != nil {
				return decimal.Zero, backoff.Permanent(err)
			}
			current = fresh
		}

		if !current.Status.IsActive() {
			return decimal.Zero, backoff.Permanent(
				fmt.Errorf("account %d is %s: %w", accountID, current.Status, util.ErrAccountNotActive))
		}
		newBalance, err := domain.ApplyDelta(current.Balance, delta)
		if err != nil {
			return decimal.Zero, backoff.Permanent(err)
		}

		opCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
		defer cancel()
		if _, err := s.balances.ApplyDelta(opCtx, accountID, delta, current.Version); err != nil {
			if errors.Is(err, util.ErrConcurrentModification) {
				s.metrics.ObserveConflict()
				s.logger.Debug("Balance version conflict, retrying",
					"account_id", accountID, "expected_version", current.Version)
				return decimal.Zero, err
			}
			return decimal.Zero, backoff.Permanent(err)
		}
		return newBalance, nil
	}

	balance, err := backoff.Retry(ctx, attempt, s.retryOptions()...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("apply %s to account %d: %w", delta.StringFixed(2), accountID, err)
	}
	return balance, nil
}

// retryOptions is the bounded exponential policy shared by balance writes and terminal ledger writes.
func (s *transactionService) retryOptions() []backoff.RetryOption {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.RetryInterval
	policy.MaxInterval = 8 * s.cfg.RetryInterval
	return []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.cfg.MaxRetries)),
	}
}
