// internal/service/transaction_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/events"
	"bank-ledger/internal/metrics"
	"bank-ledger/internal/reference"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/util"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
)

// TransactionService defines the interface for the transaction engine and its read-only queries.
type TransactionService interface {
	Deposit(ctx context.Context, accountID int64, amount decimal.Decimal, description string) (*domain.Transaction, error)
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal, description string) (*domain.Transaction, error)
	Transfer(ctx context.Context, sourceAccountID, destinationAccountID int64, amount decimal.Decimal, description string) (*domain.Transaction, error)

	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error)
	ListByAccountAndDateRange(ctx context.Context, accountID int64, from, to time.Time) ([]domain.Transaction, error)
	ListAll(ctx context.Context) ([]domain.Transaction, error)
}

// Config tunes the engine.
type Config struct {
	MaxRetries           int           // read-validate-write attempts per balance mutation
	RetryInterval        time.Duration // initial wait between attempts, grows exponentially
	OperationTimeout     time.Duration // bound on every balance store and ledger call
	MaxReferenceAttempts int           // reference generations before giving up
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:           3,
		RetryInterval:        25 * time.Millisecond,
		OperationTimeout:     5 * time.Second,
		MaxReferenceAttempts: 5,
	}
}

// transactionService implements the TransactionService interface.
type transactionService struct {
	balances   repository.BalanceStore
	ledger     repository.TransactionRepository
	references reference.Generator
	publisher  events.Publisher
	metrics    *metrics.EngineMetrics // may be nil
	logger     *slog.Logger
	cfg        Config
	now        func() time.Time
}

// NewTransactionService creates a new instance of TransactionService.
func NewTransactionService(
	balances repository.BalanceStore,
	ledger repository.TransactionRepository,
	references reference.Generator,
	publisher events.Publisher,
	engineMetrics *metrics.EngineMetrics,
	logger *slog.Logger,
	cfg Config,
) TransactionService {
	defaults := DefaultConfig()
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaults.RetryInterval
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.MaxReferenceAttempts < 1 {
		cfg.MaxReferenceAttempts = defaults.MaxReferenceAttempts
	}
	return &transactionService{
		balances:   balances,
		ledger:     ledger,
		references: references,
		publisher:  publisher,
		metrics:    engineMetrics,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Deposit credits amount to an ACTIVE account.
func (s *transactionService) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	return s.applySingle(ctx, domain.TransactionTypeDeposit, accountID, amount, description)
}

// Withdraw debits amount from an ACTIVE account holding at least amount.
func (s *transactionService) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	return s.applySingle(ctx, domain.TransactionTypeWithdrawal, accountID, amount, description)
}

// applySingle drives a one-account movement through PENDING to a terminal state.
func (s *transactionService) applySingle(ctx context.Context, txType domain.TransactionType, accountID int64, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	start := s.now()

	amount, err := validateRequest(amount, description)
	if err != nil {
		return nil, s.reject(txType, err)
	}
	delta := amount
	if txType == domain.TransactionTypeWithdrawal {
		delta = amount.Neg()
	}

	snapshot, err := s.readActive(ctx, accountID)
	if err != nil {
		return nil, s.reject(txType, err)
	}
	prospective, err := domain.ApplyDelta(snapshot.Balance, delta)
	if err != nil {
		return nil, s.reject(txType, err)
	}

	tx, err := s.open(ctx, txType, amount, accountID, nil, description, prospective)
	if err != nil {
		return nil, err
	}

	// The row exists; from here the movement runs to a terminal state regardless of the caller.
	ctx = context.WithoutCancel(ctx)

	balanceAfter, err := s.mutate(ctx, accountID, delta, &snapshot)
	if err != nil {
		return nil, s.fail(ctx, tx, err.Error(), err, start)
	}
	return s.complete(ctx, tx, balanceAfter, start)
}

func validateRequest(amount decimal.Decimal, description string) (decimal.Decimal, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return amount, err
	}
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
		return amount, fmt.Errorf("description longer than %d characters: %w", domain.MaxDescriptionLength, util.ErrInvalidInput)
	}
	return domain.Normalize(amount), nil
}

// readActive reads an account and rejects it unless it is ACTIVE.
func (s *transactionService) readActive(ctx context.Context, accountID int64) (domain.BalanceSnapshot, error) {
	snapshot, err := s.readBalance(ctx, accountID)
	if err != nil {
		return snapshot, err
	}
	if !snapshot.Status.IsActive() {
		return snapshot, fmt.Errorf("account %d is %s: %w", accountID, snapshot.Status, util.ErrAccountNotActive)
	}
	return snapshot, nil
}

func (s *transactionService) readBalance(ctx context.Context, accountID int64) (domain.BalanceSnapshot, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	return s.balances.GetBalance(opCtx, accountID)
}

func (s *transactionService) reject(txType domain.TransactionType, err error) error {
	s.metrics.ObserveRejection(txType, err)
	s.logger.Info("Transaction rejected", "type", txType, "code", util.ErrorCode(err), "error", err)
	return err
}

// open persists a new PENDING row under a fresh reference. References are regenerated
// when the ledger already holds them.
func (s *transactionService) open(
	ctx context.Context,
	txType domain.TransactionType,
	amount decimal.Decimal,
	sourceAccountID int64,
	destinationAccountID *int64,
	description string,
	balanceAfter decimal.Decimal,
) (*domain.Transaction, error) {
	for attempt := 1; attempt <= s.cfg.MaxReferenceAttempts; attempt++ {
		ref, err := s.references.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate reference: %w", err)
		}

		taken, err := s.referenceTaken(ctx, ref)
		if err != nil {
			return nil, err
		}
		if taken {
			s.logger.Warn("Reference collision, regenerating", "reference", ref, "attempt", attempt)
			continue
		}

		tx := domain.NewTransaction(ref, txType, amount, sourceAccountID, destinationAccountID, description, balanceAfter, s.now())
		if err := s.create(ctx, tx); err != nil {
			if errors.Is(err, util.ErrDuplicateEntry) {
				s.logger.Warn("Reference taken concurrently, regenerating", "reference", ref, "attempt", attempt)
				continue
			}
			return nil, err
		}
		s.logger.Debug("Transaction opened", "reference", tx.Reference, "id", tx.ID, "type", txType)
		return tx, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", util.ErrReferenceExhausted, s.cfg.MaxReferenceAttempts)
}

func (s *transactionService) referenceTaken(ctx context.Context, ref string) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	taken, err := s.ledger.ExistsByReference(opCtx, ref)
	if err != nil {
		return false, fmt.Errorf("check reference %s: %w", ref, err)
	}
	return taken, nil
}

func (s *transactionService) create(ctx context.Context, tx *domain.Transaction) error {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	if _, err := s.ledger.Create(opCtx, tx); err != nil {
		return fmt.Errorf("create transaction %s: %w", tx.Reference, err)
	}
	return nil
}

// complete marks tx COMPLETED with the actual post-mutation balance.
func (s *transactionService) complete(ctx context.Context, tx *domain.Transaction, balanceAfter decimal.Decimal, start time.Time) (*domain.Transaction, error) {
	tx.Complete(balanceAfter, s.now())
	if err := s.finish(ctx, tx, events.EventTransactionCompleted, start); err != nil {
		return nil, fmt.Errorf("transaction %s applied but its completion was not recorded: %w", tx.Reference, err)
	}
	s.logger.Info("Transaction completed",
		"reference", tx.Reference,
		"type", tx.Type,
		"account_id", tx.SourceAccountID,
		"amount", tx.Amount.StringFixed(2),
		"balance_after", tx.BalanceAfterTransaction.StringFixed(2),
	)
	return tx, nil
}

// fail marks tx FAILED with reason and returns the caller-facing error.
func (s *transactionService) fail(ctx context.Context, tx *domain.Transaction, reason string, cause error, start time.Time) error {
	tx.Fail(reason, s.now())
	_ = s.finish(ctx, tx, events.EventTransactionFailed, start)
	s.logger.Warn("Transaction failed",
		"reference", tx.Reference,
		"type", tx.Type,
		"account_id", tx.SourceAccountID,
		"amount", tx.Amount.StringFixed(2),
		"error", cause,
	)
	return &TransactionFailedError{Transaction: tx, Cause: cause}
}

// finish persists a terminal transaction, records metrics and publishes its event.
// Publish failures are logged only; the ledger row is the source of truth.
func (s *transactionService) finish(ctx context.Context, tx *domain.Transaction, eventType events.EventType, start time.Time) error {
	if err := s.persistTerminal(ctx, tx); err != nil {
		s.logger.Error("Failed to persist terminal transaction state, row left PENDING",
			"alert", true,
			"action", "manual_reconciliation",
			"reference", tx.Reference,
			"transaction_id", tx.ID,
			"status", tx.Status,
			"error", err,
		)
		return err
	}
	s.metrics.ObserveTerminal(tx, s.now().Sub(start))

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	if err := s.publisher.Publish(opCtx, events.NewTransactionEvent(eventType, tx, s.now())); err != nil {
		s.logger.Warn("Failed to publish transaction event",
			"reference", tx.Reference, "event_type", eventType, "error", err)
	}
	return nil
}

// persistTerminal writes the terminal state with the bounded retry policy. A row that is no
// longer PENDING cannot be fixed by retrying, unless an earlier attempt that reported an
// error did land.
func (s *transactionService) persistTerminal(ctx context.Context, tx *domain.Transaction) error {
	failed := false
	attempt := func() (struct{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
		defer cancel()
		err := s.ledger.Update(opCtx, tx)
		if errors.Is(err, util.ErrTransactionNotFound) {
			if failed && s.landed(opCtx, tx) {
				return struct{}{}, nil
			}
			return struct{}{}, backoff.Permanent(err)
		}
		failed = err != nil
		if err != nil {
			s.logger.Warn("Terminal ledger write failed, retrying",
				"reference", tx.Reference, "status", tx.Status, "error", err)
		}
		return struct{}{}, err
	}
	_, err := backoff.Retry(ctx, attempt, s.retryOptions()...)
	return err
}

// landed reports whether the stored row already carries tx's terminal status.
func (s *transactionService) landed(ctx context.Context, tx *domain.Transaction) bool {
	stored, err := s.ledger.FindByID(ctx, tx.ID)
	return err == nil && stored.Status == tx.Status
}
