// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SalesTotal counts sale lifecycle transitions by resulting status.
	SalesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scanstock",
		Name:      "sales_total",
		Help:      "Sales created, cancelled or refunded.",
	}, []string{"status"})

	ActivityLogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scanstock",
		Name:      "activity_log_failures_total",
		Help:      "Activity log writes that failed and were suppressed.",
	})
)
