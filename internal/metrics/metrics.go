// Package metrics holds the process-wide Prometheus collectors and a small CloudWatch
// publisher used by the Lambda worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesForwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_files_forwarded_total",
		Help: "Files submitted to the automation webhook, by outcome.",
	},
		[]string{"outcome"},
	)

	ResultsReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_results_received_total",
		Help: "Parsed-result callbacks accepted, by the decoder that recognised them.",
	},
		[]string{"decoder"},
	)

	ResultsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_results_rejected_total",
		Help: "Parsed-result callbacks rejected, by reason.",
	},
		[]string{"reason"},
	)

	ResultsEvictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_results_evicted_total",
		Help: "Stored result sets removed after their TTL elapsed.",
	})

	BackendErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_backend_errors_total",
		Help: "Errors returned by the hosted database, by table.",
	},
		[]string{"table"},
	)
)
