package infrastructures

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine counters. Audit write failures are visible only here and in logs;
// the business operations they describe succeed regardless.
var (
	LedgerAppends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_appends_total",
		Help: "Accepted ledger appends by transaction type.",
	}, []string{"type"})

	DuplicateTransactionReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_transaction_replays_total",
		Help: "Idempotent replays answered with the original ledger entry.",
	})

	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Audit trail writes that failed and were swallowed.",
	})
)
