// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/util"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const transactionColumns = `id, transaction_reference, transaction_type, amount, source_account_id, destination_account_id,
	description, status, failure_reason, balance_after_transaction, created_at, updated_at, completed_at`

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct {
	db repository.DBExecutor
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db repository.DBExecutor) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a new transaction record and assigns its ID.
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (int64, error) {
	query := `INSERT INTO transactions (transaction_reference, transaction_type, amount, source_account_id, destination_account_id,
                  description, status, failure_reason, balance_after_transaction, created_at, updated_at, completed_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		transaction.Reference,
		transaction.Type,
		transaction.Amount,
		transaction.SourceAccountID,
		transaction.DestinationAccountID,
		transaction.Description,
		transaction.Status,
		transaction.FailureReason,
		transaction.BalanceAfterTransaction,
		transaction.CreatedAt,
		transaction.UpdatedAt,
		transaction.CompletedAt,
	).Scan(&transaction.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, fmt.Errorf("reference %s: %w", transaction.Reference, util.ErrDuplicateEntry)
		}
		return 0, fmt.Errorf("failed to create transaction: %w", err)
	}
	return transaction.ID, nil
}

// Update persists the outcome of a PENDING transaction. Terminal rows are never rewritten.
func (r *TransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) error {
	query := `UPDATE transactions
              SET status = $1, failure_reason = $2, balance_after_transaction = $3, updated_at = $4, completed_at = $5
              WHERE id = $6 AND status = $7`
	result, err := r.db.ExecContext(ctx, query,
		transaction.Status,
		transaction.FailureReason,
		transaction.BalanceAfterTransaction,
		transaction.UpdatedAt,
		transaction.CompletedAt,
		transaction.ID,
		domain.TransactionStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", transaction.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating transaction %d: %w", transaction.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no pending transaction with ID %d: %w", transaction.ID, util.ErrTransactionNotFound)
	}
	return nil
}

// FindByID retrieves a transaction by its ID.
func (r *TransactionRepository) FindByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if err := r.db.GetContext(ctx, &transaction, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID %d: %w", id, err)
	}
	return &transaction, nil
}

// FindByReference retrieves a transaction by its reference.
func (r *TransactionRepository) FindByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_reference = $1`
	if err := r.db.GetContext(ctx, &transaction, query, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by reference '%s': %w", reference, err)
	}
	return &transaction, nil
}

// FindAllByAccount retrieves every transaction where the account is source or destination.
func (r *TransactionRepository) FindAllByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE source_account_id = $1 OR destination_account_id = $1
		ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &transactions, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for account %d: %w", accountID, err)
	}
	return transactions, nil
}

// FindByAccountAndDateRange retrieves the account's transactions created within [from, to].
func (r *TransactionRepository) FindByAccountAndDateRange(ctx context.Context, accountID int64, from, to time.Time) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (source_account_id = $1 OR destination_account_id = $1)
		  AND created_at BETWEEN $2 AND $3
		ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &transactions, query, accountID, from, to); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for account %d between %s and %s: %w",
			accountID, from.Format(time.RFC3339), to.Format(time.RFC3339), err)
	}
	return transactions, nil
}

// FindAll retrieves every transaction.
func (r *TransactionRepository) FindAll(ctx context.Context) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &transactions, query); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return transactions, nil
}

// ExistsByReference reports whether the reference is already in use.
func (r *TransactionRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE transaction_reference = $1)`
	if err := r.db.GetContext(ctx, &exists, query, reference); err != nil {
		return false, fmt.Errorf("failed to check reference '%s': %w", reference, err)
	}
	return exists, nil
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)
