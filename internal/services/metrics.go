package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeInserted  = "inserted"
	outcomeDuplicate = "duplicate"
	outcomeSuccess   = "success"
	outcomeFailed    = "failed"
	outcomeNotFound  = "not_found"
)

var (
	// ledgerItemsTotal counts per-ICCID outcomes of ledger operations.
	ledgerItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simledger_ledger_items_total",
			Help: "ICCIDs processed by ledger operations, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// ledgerBatchErrorsTotal counts store round-trips that failed inside a bulk operation.
	ledgerBatchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simledger_ledger_batch_errors_total",
			Help: "Failed store batches during bulk ledger operations",
		},
		[]string{"operation"},
	)
)

func countItems(operation, outcome string, n int) {
	if n > 0 {
		ledgerItemsTotal.WithLabelValues(operation, outcome).Add(float64(n))
	}
}
