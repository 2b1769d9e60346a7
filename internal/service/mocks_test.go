// internal/service/mocks_test.go
package service

import (
	"context"
	"sync"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/events"
	"bank-ledger/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockBalanceStore is a mock implementation of repository.BalanceStore.
type MockBalanceStore struct {
	mock.Mock
}

func (m *MockBalanceStore) GetBalance(ctx context.Context, accountID int64) (domain.BalanceSnapshot, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(domain.BalanceSnapshot), args.Error(1)
}

func (m *MockBalanceStore) ApplyDelta(ctx context.Context, accountID int64, delta decimal.Decimal, expectedVersion int64) (int64, error) {
	args := m.Called(ctx, accountID, delta, expectedVersion)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (int64, error) {
	args := m.Called(ctx, transaction)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindAllByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByAccountAndDateRange(ctx context.Context, accountID int64, from, to time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, accountID, from, to)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindAll(ctx context.Context) ([]domain.Transaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	args := m.Called(ctx, reference)
	return args.Bool(0), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.TransactionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TransactionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// scriptedStore wraps the memory balance store and fails ApplyDelta calls on demand.
// Each account has a queue of outcomes consumed one per ApplyDelta call; a nil entry
// lets the call through. An empty queue always lets the call through.
type scriptedStore struct {
	*memory.BalanceStore

	mu       sync.Mutex
	outcomes map[int64][]error
	calls    map[int64]int
}

func newScriptedStore(base *memory.BalanceStore) *scriptedStore {
	return &scriptedStore{
		BalanceStore: base,
		outcomes:     make(map[int64][]error),
		calls:        make(map[int64]int),
	}
}

func (s *scriptedStore) script(accountID int64, outcomes ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[accountID] = outcomes
}

func (s *scriptedStore) ApplyDelta(ctx context.Context, accountID int64, delta decimal.Decimal, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	s.calls[accountID]++
	var scripted error
	if queue := s.outcomes[accountID]; len(queue) > 0 {
		scripted, s.outcomes[accountID] = queue[0], queue[1:]
	}
	s.mu.Unlock()

	if scripted != nil {
		return 0, scripted
	}
	return s.BalanceStore.ApplyDelta(ctx, accountID, delta, expectedVersion)
}
