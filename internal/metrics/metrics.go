// internal/metrics/metrics.go
package metrics

import (
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/util"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ledger"

// EngineMetrics holds the Prometheus collectors of the transaction engine.
// A nil *EngineMetrics is valid and records nothing.
type EngineMetrics struct {
	TransactionsTotal  *prometheus.CounterVec   // by type and terminal status
	RejectionsTotal    *prometheus.CounterVec   // by type and error code, no row written
	ConflictsTotal     prometheus.Counter       // version conflicts seen by the mutation loop
	CompensationsTotal *prometheus.CounterVec   // by outcome
	Duration           *prometheus.HistogramVec // by type
}

// NewEngineMetrics creates the engine collectors and registers them with reg.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		TransactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "transactions_total",
			Help:      "Transactions that reached a terminal state",
		}, []string{"type", "status"}),
		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "rejections_total",
			Help:      "Requests rejected before a transaction row was written",
		}, []string{"type", "code"}),
		ConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "version_conflicts_total",
			Help:      "Optimistic concurrency conflicts on balance writes",
		}),
		CompensationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "compensations_total",
			Help:      "Compensating credits applied after a failed transfer credit",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "transaction_duration_seconds",
			Help:      "Time from PENDING to a terminal state",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
	}
	reg.MustRegister(m.TransactionsTotal, m.RejectionsTotal, m.ConflictsTotal, m.CompensationsTotal, m.Duration)
	return m
}

// ObserveTerminal records a transaction that reached COMPLETED or FAILED.
func (m *EngineMetrics) ObserveTerminal(tx *domain.Transaction, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TransactionsTotal.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
	m.Duration.WithLabelValues(string(tx.Type)).Observe(elapsed.Seconds())
}

// ObserveRejection records a request refused by validation or a precondition.
func (m *EngineMetrics) ObserveRejection(txType domain.TransactionType, err error) {
	if m == nil {
		return
	}
	m.RejectionsTotal.WithLabelValues(string(txType), util.ErrorCode(err)).Inc()
}

// ObserveConflict records one ConcurrentModification from the balance store.
func (m *EngineMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.ConflictsTotal.Inc()
}

// ObserveCompensation records the outcome of a compensating credit.
func (m *EngineMetrics) ObserveCompensation(succeeded bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if succeeded {
		outcome = "succeeded"
	}
	m.CompensationsTotal.WithLabelValues(outcome).Inc()
}
