// internal/repository/memory/balance_store.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/util"

	"github.com/shopspring/decimal"
)

// BalanceStore is an in-memory implementation of repository.BalanceStore.
// Every write is a compare-and-swap on the account version under a single mutex.
type BalanceStore struct {
	mu       sync.Mutex
	accounts map[int64]domain.Account
}

// NewBalanceStore creates an empty BalanceStore.
func NewBalanceStore() *BalanceStore {
	return &BalanceStore{accounts: make(map[int64]domain.Account)}
}

// Put stores or replaces an account as given. It is meant for seeding.
func (s *BalanceStore) Put(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.ID] = account
}

// SetStatus changes an account's status and bumps its version.
func (s *BalanceStore) SetStatus(accountID int64, status domain.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %d: %w", accountID, util.ErrAccountNotFound)
	}
	account.Status = status
	account.Version++
	account.UpdatedAt = time.Now().UTC()
	s.accounts[accountID] = account
	return nil
}

// GetBalance returns a snapshot of the account.
func (s *BalanceStore) GetBalance(ctx context.Context, accountID int64) (domain.BalanceSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.BalanceSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return domain.BalanceSnapshot{}, fmt.Errorf("account %d: %w", accountID, util.ErrAccountNotFound)
	}
	return account.Snapshot(), nil
}

// ApplyDelta applies delta if the account is still at expectedVersion.
func (s *BalanceStore) ApplyDelta(ctx context.Context, accountID int64, delta decimal.Decimal, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return 0, fmt.Errorf("account %d: %w", accountID, util.ErrAccountNotFound)
	}
	if account.Version != expectedVersion {
		return 0, fmt.Errorf("account %d at version %d, expected %d: %w",
			accountID, account.Version, expectedVersion, util.ErrConcurrentModification)
	}
	if !account.Status.IsActive() {
		return 0, fmt.Errorf("account %d is %s: %w", accountID, account.Status, util.ErrAccountNotActive)
	}
	newBalance, err := domain.ApplyDelta(account.Balance, delta)
	if err != nil {
		return 0, err
	}

	account.Balance = newBalance
	account.Version++
	account.UpdatedAt = time.Now().UTC()
	s.accounts[accountID] = account
	return account.Version, nil
}

// Compile-time check: ensure BalanceStore implements repository.BalanceStore
var _ repository.BalanceStore = (*BalanceStore)(nil)
