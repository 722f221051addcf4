// Package metrics holds the Prometheus collectors of the library service.
// All of them are registered on the default registry at init and exposed
// on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "library"

// RentalOpsTotal counts rent and return attempts.
// Labels:
//   - op: "rent" or "return"
//   - result: "ok", "conflict", "forbidden", "not_found", "invalid" or "error"
var RentalOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rental_operations_total",
		Help:      "Total number of rent/return operations by outcome.",
	},
	[]string{"op", "result"},
)

// RentalOpDuration measures a rent or return including its transaction.
var RentalOpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rental_operation_duration_seconds",
		Help:      "Duration of rent/return operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// OverdueRentals is refreshed by the overdue sweeper.
var OverdueRentals = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rentals_overdue",
		Help:      "Number of open rentals past their due date at the last sweep.",
	},
)

// CommandsDedupTotal counts dedup decisions for queued rental commands.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss"
var CommandsDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rental_commands_dedup_total",
		Help:      "Total number of rental command dedup checks by result.",
	},
	[]string{"result"},
)

// EventsPublishErrorsTotal counts rental events that could not be published.
var EventsPublishErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rental_events_publish_errors_total",
		Help:      "Total number of rental events dropped because publishing failed.",
	},
)
