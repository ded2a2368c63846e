// Package metrics defines the Prometheus instrumentation for the ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AggregationsTotal counts balance summary computations.
	AggregationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripledger_aggregations_total",
		Help: "Number of balance summaries computed.",
	})

	// PaymentsCreatedTotal counts committed expense records.
	PaymentsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripledger_payments_created_total",
		Help: "Number of expense records created.",
	})

	// SettlementsTotal counts settle calls by outcome. "applied" is a real
	// Pending to Settled transition, "noop" an idempotent repeat.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripledger_settlements_total",
		Help: "Number of settlement calls by outcome.",
	}, []string{"outcome"})

	// LoadFailuresTotal counts ledger reloads that failed at the source.
	LoadFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripledger_load_failures_total",
		Help: "Number of failed ledger loads from the active source.",
	})

	// StaleServesTotal counts reads answered from a stale cached snapshot
	// after a reload failure.
	StaleServesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripledger_stale_serves_total",
		Help: "Number of reads served from a stale snapshot after a load failure.",
	})
)
