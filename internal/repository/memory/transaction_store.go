// internal/repository/memory/transaction_store.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/util"
)

// TransactionStore is an in-memory implementation of repository.TransactionRepository.
// Records are copied in and out so callers never share memory with the store.
type TransactionStore struct {
	mu          sync.RWMutex
	nextID      int64
	byID        map[int64]domain.Transaction
	byReference map[string]int64
}

// NewTransactionStore creates an empty TransactionStore.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		byID:        make(map[int64]domain.Transaction),
		byReference: make(map[string]int64),
	}
}

// Create stores the transaction and assigns the next ID.
func (s *TransactionStore) Create(ctx context.Context, transaction *domain.Transaction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byReference[transaction.Reference]; exists {
		return 0, fmt.Errorf("reference %s: %w", transaction.Reference, util.ErrDuplicateEntry)
	}
	s.nextID++
	transaction.ID = s.nextID
	s.byID[transaction.ID] = clone(*transaction)
	s.byReference[transaction.Reference] = transaction.ID
	return transaction.ID, nil
}

// Update replaces a PENDING record with the given state.
func (s *TransactionStore) Update(ctx context.Context, transaction *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[transaction.ID]
	if !ok || stored.Status != domain.TransactionStatusPending {
		return fmt.Errorf("no pending transaction with ID %d: %w", transaction.ID, util.ErrTransactionNotFound)
	}
	s.byID[transaction.ID] = clone(*transaction)
	return nil
}

// FindByID retrieves a transaction by ID.
func (s *TransactionStore) FindByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.byID[id]
	if !ok {
		return nil, util.ErrTransactionNotFound
	}
	out := clone(stored)
	return &out, nil
}

// FindByReference retrieves a transaction by reference.
func (s *TransactionStore) FindByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	s.mu.RLock()
	id, ok := s.byReference[reference]
	s.mu.RUnlock()
	if !ok {
		return nil, util.ErrTransactionNotFound
	}
	return s.FindByID(ctx, id)
}

// FindAllByAccount returns the account's transactions, newest first.
func (s *TransactionStore) FindAllByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	return s.filter(func(t *domain.Transaction) bool { return t.Involves(accountID) }), nil
}

// FindByAccountAndDateRange returns the account's transactions created within [from, to], newest first.
func (s *TransactionStore) FindByAccountAndDateRange(ctx context.Context, accountID int64, from, to time.Time) ([]domain.Transaction, error) {
	return s.filter(func(t *domain.Transaction) bool {
		return t.Involves(accountID) && !t.CreatedAt.Before(from) && !t.CreatedAt.After(to)
	}), nil
}

// FindAll returns every transaction, newest first.
func (s *TransactionStore) FindAll(ctx context.Context) ([]domain.Transaction, error) {
	return s.filter(func(*domain.Transaction) bool { return true }), nil
}

// ExistsByReference reports whether the reference is taken.
func (s *TransactionStore) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byReference[reference]
	return ok, nil
}

func (s *TransactionStore) filter(keep func(*domain.Transaction) bool) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Transaction{}
	for _, t := range s.byID {
		if keep(&t) {
			result = append(result, clone(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

// clone deep-copies the pointer fields of a transaction.
func clone(t domain.Transaction) domain.Transaction {
	if t.DestinationAccountID != nil {
		v := *t.DestinationAccountID
		t.DestinationAccountID = &v
	}
	if t.FailureReason != nil {
		v := *t.FailureReason
		t.FailureReason = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		t.CompletedAt = &v
	}
	return t
}

// Compile-time check: ensure TransactionStore implements repository.TransactionRepository
var _ repository.TransactionRepository = (*TransactionStore)(nil)
