// internal/repository/cache/transaction_cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ledger:txn:"

// TransactionCache decorates a TransactionRepository with a redis read-through cache.
// Only terminal transactions are cached since nothing about them changes afterwards.
// Redis failures are logged and the call falls through to the wrapped repository.
type TransactionCache struct {
	next   repository.TransactionRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewTransactionCache creates a new TransactionCache.
func NewTransactionCache(next repository.TransactionRepository, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *TransactionCache {
	return &TransactionCache{next: next, client: client, ttl: ttl, logger: logger}
}

func idKey(id int64) string { return keyPrefix + "id:" + strconv.FormatInt(id, 10) }
func referenceKey(ref string) string { return keyPrefix + "ref:" + ref }

func (c *TransactionCache) Create(ctx context.Context, tx *domain.Transaction) (int64, error) {
	return c.next.Create(ctx, tx)
}

// Update persists tx and, once it is terminal, writes it through to the cache.
func (c *TransactionCache) Update(ctx context.Context, tx *domain.Transaction) error {
	if err := c.next.Update(ctx, tx); err != nil {
		return err
	}
	c.store(ctx, tx)
	return nil
}

func (c *TransactionCache) FindByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	if tx, ok := c.load(ctx, idKey(id)); ok {
		return tx, nil
	}
	tx, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, tx)
	return tx, nil
}

func (c *TransactionCache) FindByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	if tx, ok := c.load(ctx, referenceKey(reference)); ok {
		return tx, nil
	}
	tx, err := c.next.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	c.store(ctx, tx)
	return tx, nil
}

func (c *TransactionCache) FindAllByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	return c.next.FindAllByAccount(ctx, accountID)
}

func (c *TransactionCache) FindByAccountAndDateRange(ctx context.Context, accountID int64, from, to time.Time) ([]domain.Transaction, error) {
	return c.next.FindByAccountAndDateRange(ctx, accountID, from, to)
}

func (c *TransactionCache) FindAll(ctx context.Context) ([]domain.Transaction, error) {
	return c.next.FindAll(ctx)
}

// ExistsByReference answers from the cache when possible. A cache miss is not
// proof of absence, so misses always go to the repository.
func (c *TransactionCache) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	if _, ok := c.load(ctx, referenceKey(reference)); ok {
		return true, nil
	}
	return c.next.ExistsByReference(ctx, reference)
}

func (c *TransactionCache) load(ctx context.Context, key string) (*domain.Transaction, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Transaction cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var tx domain.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	return &tx, true
}

func (c *TransactionCache) store(ctx context.Context, tx *domain.Transaction) {
	if !tx.IsTerminal() {
		return
	}
	data, err := json.Marshal(tx)
	if err != nil {
		c.logger.Warn("Transaction cache encode failed", "reference", tx.Reference, "error", err)
		return
	}
	_, err = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, idKey(tx.ID), data, c.ttl)
		pipe.Set(ctx, referenceKey(tx.Reference), data, c.ttl)
		return nil
	})
	if err != nil {
		c.logger.Warn("Transaction cache write failed", "reference", tx.Reference, "error", err)
	}
}

// Compile-time check: ensure TransactionCache implements repository.TransactionRepository
var _ repository.TransactionRepository = (*TransactionCache)(nil)
