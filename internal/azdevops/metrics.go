package azdevops

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for outbound Azure DevOps calls.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	FailedAttempts  *prometheus.CounterVec
	WorkItemsTotal  *prometheus.CounterVec
}

// NewMetrics registers the client metrics once per process with the default
// registry.
//
// Metrics:
//   - weekreport_azdevops_requests_total{endpoint,outcome}
//   - weekreport_azdevops_request_duration_seconds{endpoint}
//   - weekreport_azdevops_failed_attempts_total{endpoint}
//   - weekreport_azdevops_work_items_total{category}
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "weekreport_azdevops_requests_total",
					Help: "Total number of requests sent to Azure DevOps",
				},
				[]string{"endpoint", "outcome"}, // "wiql" or "workitemsbatch"; "success" or "error"
			),
			RequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "weekreport_azdevops_request_duration_seconds",
					Help:    "Duration of Azure DevOps requests in seconds",
					Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				},
				[]string{"endpoint"},
			),
			FailedAttempts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "weekreport_azdevops_failed_attempts_total",
					Help: "Total number of failed request attempts, including the final one",
				},
				[]string{"endpoint"},
			),
			WorkItemsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "weekreport_azdevops_work_items_total",
					Help: "Total number of work items resolved per category",
				},
				[]string{"category"},
			),
		}
	})
	return globalMetrics
}
