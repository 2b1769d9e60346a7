// internal/repository/cache/transaction_cache_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository/memory"
	"bank-ledger/internal/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*TransactionCache, *memory.TransactionStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.NewTransactionStore()
	return NewTransactionCache(store, client, time.Minute, util.DiscardLogger()), store, srv
}

func newDeposit(ref string) *domain.Transaction {
	return domain.NewTransaction(ref, domain.TransactionTypeDeposit, decimal.RequireFromString("10.00"), 1, nil, "", decimal.RequireFromString("10.00"), time.Now())
}

func TestPendingIsNotCached(t *testing.T) {
	ctx := context.Background()
	c, _, srv := newTestCache(t)

	tx := newDeposit("TXN-AAAAAAAAAAA1")
	_, err := c.Create(ctx, tx)
	require.NoError(t, err)

	got, err := c.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, got.Status)
	assert.False(t, srv.Exists(idKey(tx.ID)))
}

func TestTerminalIsWrittenThrough(t *testing.T) {
	ctx := context.Background()
	c, _, srv := newTestCache(t)

	tx := newDeposit("TXN-AAAAAAAAAAA2")
	_, err := c.Create(ctx, tx)
	require.NoError(t, err)
	tx.Complete(decimal.RequireFromString("10.00"), time.Now())
	require.NoError(t, c.Update(ctx, tx))

	assert.True(t, srv.Exists(idKey(tx.ID)))
	assert.True(t, srv.Exists(referenceKey(tx.Reference)))
	assert.Equal(t, time.Minute, srv.TTL(idKey(tx.ID)))

	// A fresh store proves the read is served from redis.
	c.next = memory.NewTransactionStore()
	got, err := c.FindByReference(ctx, tx.Reference)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, domain.TransactionStatusCompleted, got.Status)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(10)))

	exists, err := c.ExistsByReference(ctx, tx.Reference)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReadThroughOnMiss(t *testing.T) {
	ctx := context.Background()
	c, store, srv := newTestCache(t)

	tx := newDeposit("TXN-AAAAAAAAAAA3")
	_, err := store.Create(ctx, tx)
	require.NoError(t, err)
	tx.Fail("balance store unavailable", time.Now())
	require.NoError(t, store.Update(ctx, tx))

	got, err := c.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, got.Status)
	assert.True(t, srv.Exists(referenceKey(tx.Reference)))

	_, err = c.FindByID(ctx, 404)
	assert.ErrorIs(t, err, util.ErrTransactionNotFound)
}

func TestRedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	c, store, srv := newTestCache(t)

	tx := newDeposit("TXN-AAAAAAAAAAA4")
	_, err := store.Create(ctx, tx)
	require.NoError(t, err)
	srv.Close()

	got, err := c.FindByReference(ctx, tx.Reference)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)

	exists, err := c.ExistsByReference(ctx, "TXN-BBBBBBBBBBBB")
	require.NoError(t, err)
	assert.False(t, exists)
}
