// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration measures API latency.
	// Labels: route (gin full path), method, status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	// AliasResolutions counts resolved and unresolved identifiers.
	// Labels: match ("direct", "alias", "phone", "supersession", "not_found").
	AliasResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_alias_resolutions_total",
			Help: "Identifiers processed by artist resolution, by how they matched",
		},
		[]string{"match"},
	)

	// AliasBatchFailures counts alias lookup batches that failed.
	AliasBatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_alias_batch_failures_total",
			Help: "Alias lookup batches that failed and were reported as partial results",
		},
	)

	// Merges counts identity merges.
	// Labels: outcome ("applied", "noop", "conflict", "rejected", "partial_failure").
	Merges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_identity_merges_total",
			Help: "Identity merge attempts by outcome",
		},
		[]string{"outcome"},
	)

	// BalanceGaps counts balance sub-queries that failed and degraded into gaps.
	// Labels: source ("sales", "ledger", "payments", "phone_match", "superseded").
	BalanceGaps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_balance_gaps_total",
			Help: "Balance inputs that could not be read",
		},
		[]string{"source"},
	)

	// PaymentTransitions counts payment status changes.
	// Labels: from, to.
	PaymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_payment_transitions_total",
			Help: "Payment status transitions",
		},
		[]string{"from", "to"},
	)

	// PaymentConflicts counts requests rejected to protect payment invariants.
	// Labels: reason ("duplicate", "in_flight", "state", "reference").
	PaymentConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_payment_conflicts_total",
			Help: "Payment operations rejected with a conflict",
		},
		[]string{"reason"},
	)

	// FXConversions counts payout conversions.
	// Labels: kind ("quote", "estimate"), pair ("USD_AUD").
	FXConversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_fx_conversions_total",
			Help: "Payout conversions by kind and currency pair",
		},
		[]string{"kind", "pair"},
	)

	// FXSpread observes the spread of locked quotes against the reference rate.
	FXSpread = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_fx_spread_ratio",
			Help:    "Spread of locked quotes relative to the reference market rate",
			Buckets: []float64{0, 0.0025, 0.005, 0.01, 0.015, 0.02, 0.03, 0.05, 0.1},
		},
		[]string{"pair"},
	)

	// ExternalCallDuration measures calls to external providers.
	// Labels: provider ("stripe", "fx_quotes", "market_rates"), operation, outcome.
	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_external_call_duration_seconds",
			Help:    "Duration of calls to external providers",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "operation", "outcome"},
	)

	// CircuitBreakerState reports breaker state: 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts breaker state transitions.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// CircuitBreakerRequests counts requests through a breaker.
	// Labels: name, outcome ("success", "failure", "rejected").
	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_circuit_breaker_requests_total",
			Help: "Requests passing through circuit breakers by outcome",
		},
		[]string{"name", "outcome"},
	)
)
