package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconciliation outcomes.
const (
	OutcomePaid       = "paid"
	OutcomeDuplicate  = "duplicate"
	OutcomeInFlight   = "in_flight"
	OutcomeUnmatched  = "unmatched"
	OutcomeFraudCheck = "fraud_check"
	OutcomeFailed     = "failed"
	OutcomeError      = "error"
)

var (
	ReconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payment events processed by the reconciliation engine, by source and outcome.",
	}, []string{"source", "outcome"})

	WebhookSignatureFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_webhook_signature_failures_total",
		Help: "Webhook deliveries rejected because the signature did not match.",
	})

	SweeperCandidates = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "payment_sweeper_pending_orders",
		Help: "Pending mobile money orders found by the last sweeper run.",
	})
)
