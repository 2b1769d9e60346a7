// internal/events/publisher.go
package events

import (
	"context"
	"log/slog"
	"time"

	"bank-ledger/internal/domain"

	"github.com/google/uuid"
)

// EventType names a transaction lifecycle event.
type EventType string

const (
	EventTransactionCompleted          EventType = "transaction.completed"
	EventTransactionFailed             EventType = "transaction.failed"
	EventTransactionCompensationFailed EventType = "transaction.compensation_failed"
)

// TransactionEvent is emitted once a transaction reaches a terminal state.
type TransactionEvent struct {
	EventID     string             `json:"event_id"`
	Type        EventType          `json:"event_type"`
	OccurredAt  time.Time          `json:"occurred_at"`
	Transaction domain.Transaction `json:"transaction"`
}

// NewTransactionEvent snapshots tx into an event of the given type.
func NewTransactionEvent(eventType EventType, tx *domain.Transaction, now time.Time) TransactionEvent {
	return TransactionEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		OccurredAt:  now.UTC(),
		Transaction: *tx,
	}
}

// Publisher delivers transaction events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event TransactionEvent) error
}

// LogPublisher writes events to the logger. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event TransactionEvent) error {
	p.logger.Info("Transaction event",
		"event_type", event.Type,
		"event_id", event.EventID,
		"reference", event.Transaction.Reference,
		"status", event.Transaction.Status,
	)
	return nil
}
