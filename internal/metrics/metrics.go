package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "disaster_reports"

// Metrics holds the Prometheus collectors for the service. All collectors are
// registered on the registerer passed to New.
type Metrics struct {
	ReportsSubmitted prometheus.Counter
	StatusUpdates    *prometheus.CounterVec
	ReportsDeleted   prometheus.Counter
	AlertsBroadcast  *prometheus.CounterVec
	ImportRows       *prometheus.CounterVec
	ImportFailures   prometheus.Counter

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ReportsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Reports created through direct submission",
		}),
		StatusUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_updates_total",
			Help:      "Accepted report status updates by new status",
		}, []string{"status"}),
		ReportsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_deleted_total",
			Help:      "Reports removed by operators",
		}),
		AlertsBroadcast: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_broadcast_total",
			Help:      "Alerts created by alert type",
		}, []string{"alert_type"}),
		ImportRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csv_import_rows_total",
			Help:      "CSV rows processed by outcome (added, skipped)",
		}, []string{"outcome"}),
		ImportFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csv_import_failures_total",
			Help:      "CSV uploads rejected because the file could not be parsed",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// NewNop returns metrics registered on a throwaway registry, for tests and
// commands that do not expose /metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
