// Package observability provides Prometheus metrics and structured
// logging for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Consistency metrics
	DSQSyncsTotal          *prometheus.CounterVec
	StandingsComputed      *prometheus.CounterVec
	StandingsSubjectsTotal *prometheus.GaugeVec

	// Database metrics
	TxDuration *prometheus.HistogramVec
	TxErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec

	// Health metrics
	LastSuccessfulWrite prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "championship_engine"
	}

	return &Metrics{
		// Engine metrics
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Total number of engine operations by operation and status",
		}, []string{"operation", "status"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		// Consistency metrics
		DSQSyncsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dsq",
			Name:      "syncs_total",
			Help:      "Total number of result dsq synchronizations by outcome",
		}, []string{"outcome"}),
		StandingsComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "standings",
			Name:      "computed_total",
			Help:      "Total number of standings computations by view",
		}, []string{"view"}),
		StandingsSubjectsTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "standings",
			Name:      "subjects",
			Help:      "Number of ranked subjects in the last computation by view",
		}, []string{"view"}),

		// Database metrics
		TxDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "tx_duration_seconds",
			Help:      "Transaction duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend"}),
		TxErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "tx_errors_total",
			Help:      "Total number of failed transactions",
		}, []string{"backend"}),

		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),

		// Health metrics
		LastSuccessfulWrite: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_write_timestamp",
			Help:      "Unix timestamp of last committed write operation",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordOperation records an engine operation.
func RecordOperation(operation, status string, seconds float64) {
	DefaultMetrics.OperationsTotal.WithLabelValues(operation, status).Inc()
	DefaultMetrics.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordDSQSync records the outcome of one result synchronization.
func RecordDSQSync(outcome string) {
	DefaultMetrics.DSQSyncsTotal.WithLabelValues(outcome).Inc()
}

// RecordStandings records a standings computation and its size.
func RecordStandings(view string, subjects int) {
	DefaultMetrics.StandingsComputed.WithLabelValues(view).Inc()
	DefaultMetrics.StandingsSubjectsTotal.WithLabelValues(view).Set(float64(subjects))
}

// RecordTx records transaction metrics.
func RecordTx(backend string, seconds float64, err error) {
	DefaultMetrics.TxDuration.WithLabelValues(backend).Observe(seconds)
	if err != nil {
		DefaultMetrics.TxErrors.WithLabelValues(backend).Inc()
	}
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(route string, code int) {
	DefaultMetrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// MarkWrite updates the last successful write gauge.
func MarkWrite(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulWrite.Set(float64(unixSeconds))
}
