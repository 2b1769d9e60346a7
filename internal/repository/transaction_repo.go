// internal/repository/transaction_repo.go
package repository

import (
	"context"
	"time"

	"bank-ledger/internal/domain"
)

// TransactionRepository defines the interface for ledger operations.
// Rows are never deleted.
type TransactionRepository interface {
	// Create inserts a new transaction and assigns its ID. A reference that already exists
	// fails with util.ErrDuplicateEntry.
	Create(ctx context.Context, transaction *domain.Transaction) (int64, error)
	// Update persists the status, failure reason, balance snapshot and timestamps of a
	// PENDING row. It fails with util.ErrTransactionNotFound if no PENDING row matches.
	Update(ctx context.Context, transaction *domain.Transaction) error
	// FindByID retrieves a transaction by ID.
	FindByID(ctx context.Context, id int64) (*domain.Transaction, error)
	// FindByReference retrieves a transaction by its reference.
	FindByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	// FindAllByAccount returns transactions where the account is source or destination, newest first.
	FindAllByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error)
	// FindByAccountAndDateRange is FindAllByAccount restricted to from <= created_at <= to.
	FindByAccountAndDateRange(ctx context.Context, accountID int64, from, to time.Time) ([]domain.Transaction, error)
	// FindAll returns every transaction, newest first.
	FindAll(ctx context.Context) ([]domain.Transaction, error)
	// ExistsByReference reports whether a reference is already taken.
	ExistsByReference(ctx context.Context, reference string) (bool, error)
}
