// Package metrics exposes the Prometheus collectors this service publishes
// on /metrics, grounded on josephblackelite-nhbchain's client_golang usage:
// package-level collectors registered against the default registry,
// instrumented from call sites with Inc()/Observe() rather than threading a
// registry handle through every layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BetsPlaced counts funded bets, labeled by side (true/false).
	BetsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prediction",
		Name:      "bets_placed_total",
		Help:      "Total number of bets that settled into Funded state.",
	}, []string{"side"})

	// PredictionsResolved counts resolved predictions, labeled by outcome.
	PredictionsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prediction",
		Name:      "predictions_resolved_total",
		Help:      "Total number of predictions resolved to a final outcome.",
	}, []string{"outcome"})

	// PredictionsRefunded counts refunded predictions, labeled by reason.
	PredictionsRefunded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prediction",
		Name:      "predictions_refunded_total",
		Help:      "Total number of predictions that refunded instead of resolving.",
	}, []string{"reason"})

	// OracleRequestDuration observes round-trip latency to the payment
	// oracle, labeled by operation (create_payment/pay/check_payment).
	OracleRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prediction",
		Name:      "oracle_request_duration_seconds",
		Help:      "Payment oracle round-trip latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// OracleRequestErrors counts failed oracle round-trips, labeled by
	// operation.
	OracleRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prediction",
		Name:      "oracle_request_errors_total",
		Help:      "Total number of failed payment oracle round-trips.",
	}, []string{"operation"})

	// SweepDuration observes how long one SweepLazyTransitions pass takes.
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prediction",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of one lazy-transition sweep across all predictions.",
		Buckets:   prometheus.DefBuckets,
	})
)

// SideLabel renders a bet side or prediction outcome as a metric label.
func SideLabel(side bool) string {
	if side {
		return "true"
	}
	return "false"
}
