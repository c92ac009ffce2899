package metrics

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "amicale_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	reconcileRuns     *prometheus.CounterVec
	reconcileDuration *prometheus.HistogramVec
	reconcileUpdates  prometheus.Counter
	reconcileErrors   prometheus.Counter
	reconcileSkipped  prometheus.Counter

	billingDuesCreated prometheus.Counter
	paymentsRecorded   *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers all metrics and DB-backed gauges.
func Init(db *sql.DB, logger *slog.Logger) {
	registerOnce.Do(func() {
		reconcileRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_runs_total",
				Help: "Total reconciliation runs by result",
			},
			[]string{"result"},
		)
		reconcileDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reconcile_duration_seconds",
				Help:    "Reconciliation run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		reconcileUpdates = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_updates_total",
				Help: "Total due records updated by reconciliation",
			},
		)
		reconcileErrors = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_record_errors_total",
				Help: "Total per-record persistence errors during reconciliation",
			},
		)
		reconcileSkipped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_periods_skipped_total",
				Help: "Total periods skipped for structural errors",
			},
		)

		billingDuesCreated = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "billing_dues_created_total",
				Help: "Total member due records created by billing",
			},
		)
		paymentsRecorded = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "payments_recorded_total",
				Help: "Total payments recorded by method",
			},
			[]string{"method"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status class",
			},
			[]string{"method", "class"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)

		prometheus.MustRegister(
			reconcileRuns,
			reconcileDuration,
			reconcileUpdates,
			reconcileErrors,
			reconcileSkipped,
			billingDuesCreated,
			paymentsRecorded,
			exportTotal,
			exportLatency,
			httpRequests,
			httpLatency,
		)

		registerDBMetrics(db, logger)
	})
}

// ObserveReconcileRun records one reconciliation run outcome.
func ObserveReconcileRun(result string, duration time.Duration, updated, errored, skipped int) {
	if reconcileRuns == nil {
		return
	}
	reconcileRuns.WithLabelValues(result).Inc()
	reconcileDuration.WithLabelValues(result).Observe(duration.Seconds())
	reconcileUpdates.Add(float64(updated))
	reconcileErrors.Add(float64(errored))
	reconcileSkipped.Add(float64(skipped))
}

// AddDuesCreated records due records created by billing.
func AddDuesCreated(count int) {
	if billingDuesCreated == nil {
		return
	}
	billingDuesCreated.Add(float64(count))
}

// IncPaymentRecorded records a payment by method.
func IncPaymentRecorded(method string) {
	if paymentsRecorded == nil {
		return
	}
	paymentsRecorded.WithLabelValues(method).Inc()
}

// ObserveExport records an export operation.
func ObserveExport(format, result string, duration time.Duration) {
	if exportTotal == nil {
		return
	}
	exportTotal.WithLabelValues(format, result).Inc()
	exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
}

// ObserveHTTP records a served request.
func ObserveHTTP(method string, status int, duration time.Duration) {
	if httpRequests == nil {
		return
	}
	class := "2xx"
	switch {
	case status >= 500:
		class = "5xx"
	case status >= 400:
		class = "4xx"
	case status >= 300:
		class = "3xx"
	}
	httpRequests.WithLabelValues(method, class).Inc()
	httpLatency.WithLabelValues(method).Observe(duration.Seconds())
}
