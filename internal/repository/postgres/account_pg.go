// internal/repository/postgres/account_pg.go
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
	"bank-ledger/pkg/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// AccountStore implements repository.BalanceStore on the local accounts table.
type AccountStore struct {
	db *sqlx.DB
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(database *sqlx.DB) *AccountStore {
	return &AccountStore{db: database}
}

// GetBalance retrieves the balance, status and version of an account.
func (s *AccountStore) GetBalance(ctx context.Context, accountID int64) (domain.BalanceSnapshot, error) {
	account, err := getAccount(ctx, s.db, accountID, false)
	if err != nil {
		return domain.BalanceSnapshot{}, err
	}
	return account.Snapshot(), nil
}

// ApplyDelta locks the account row, re-validates version, status and funds, and writes
// the new balance with an incremented version.
func (s *AccountStore) ApplyDelta(ctx context.Context, accountID int64, delta decimal.Decimal, expectedVersion int64) (int64, error) {
	var newVersion int64
	err := db.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		account, err := getAccount(ctx, tx, accountID, true)
		if err != nil {
			return err
		}
		if account.Version != expectedVersion {
			return fmt.Errorf("account %d at version %d, expected %d: %w",
				accountID, account.Version, expectedVersion, util.ErrConcurrentModification)
		}
		if !account.Status.IsActive() {
			return fmt.Errorf("account %d is %s: %w", accountID, account.Status, util.ErrAccountNotActive)
		}
		newBalance, err := domain.ApplyDelta(account.Balance, delta)
		if err != nil {
			return err
		}

		query := `UPDATE accounts SET balance = $1, version = version + 1, updated_at = $2
                  WHERE id = $3 AND version = $4 RETURNING version`
		err = tx.QueryRowContext(ctx, query, newBalance, time.Now().UTC(), accountID, expectedVersion).Scan(&newVersion)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %d: %w", accountID, util.ErrConcurrentModification)
		}
		if err != nil {
			return fmt.Errorf("failed to update balance for account %d: %w", accountID, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// CreateAccount inserts an account. It exists for seeding and tests; the engine never calls it.
func (s *AccountStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	now := time.Now().UTC()
	query := `INSERT INTO accounts (balance, status, version, created_at, updated_at)
              VALUES ($1, $2, 0, $3, $3) RETURNING id, version, created_at, updated_at`
	err := s.db.QueryRowxContext(ctx, query, account.Balance, account.Status, now).
		Scan(&account.ID, &account.Version, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func getAccount(ctx context.Context, q repository.DBExecutor, accountID int64, forUpdate bool) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT id, balance, status, version, created_at, updated_at FROM accounts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	if err := q.GetContext(ctx, &account, query, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %d: %w", accountID, util.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("failed to get account %d: %w", accountID, err)
	}
	return &account, nil
}

var _ repository.BalanceStore = (*AccountStore)(nil)
