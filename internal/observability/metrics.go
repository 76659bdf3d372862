// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	ObservationsLoaded   prometheus.Counter
	ObservationsReplayed prometheus.Counter
	RowsRejected         *prometheus.CounterVec

	// Pipeline metrics
	RecordsEnriched  prometheus.Counter
	PricesComputed   prometheus.Counter
	RecordsFailed    *prometheus.CounterVec
	PipelineDuration prometheus.Histogram

	// Windowing metrics
	WindowsOpen        prometheus.Gauge
	WindowsClosed      prometheus.Counter
	LateRecordsDropped prometheus.Counter
	WatermarkSeconds   *prometheus.GaugeVec

	// Sink metrics
	AggregatesPublished *prometheus.CounterVec
	SinkErrors          *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "parking_pricing"
	}

	return &Metrics{
		ObservationsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "observations_loaded_total",
			Help:      "Total number of observations loaded from the dataset",
		}),
		ObservationsReplayed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "observations_replayed_total",
			Help:      "Total number of observations replayed into the pipeline",
		}),
		RowsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_rejected_total",
			Help:      "Total number of dataset rows rejected by reason",
		}, []string{"reason"}),

		RecordsEnriched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "records_enriched_total",
			Help:      "Total number of observations enriched with derived features",
		}),
		PricesComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "prices_computed_total",
			Help:      "Total number of dynamic prices computed",
		}),
		RecordsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "records_failed_total",
			Help:      "Total number of records failed at a transform stage",
		}, []string{"stage"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		WindowsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "windowing",
			Name:      "windows_open",
			Help:      "Current number of open (day, lot) window instances",
		}),
		WindowsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "windowing",
			Name:      "windows_closed_total",
			Help:      "Total number of window instances closed and emitted",
		}),
		LateRecordsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "windowing",
			Name:      "late_records_dropped_total",
			Help:      "Total number of records dropped for arriving after their window closed",
		}),
		WatermarkSeconds: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "windowing",
			Name:      "watermark_timestamp_seconds",
			Help:      "Latest observed event time per lot as a Unix timestamp",
		}, []string{"lot"}),

		AggregatesPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "aggregates_published_total",
			Help:      "Total number of window aggregates published by sink",
		}, []string{"sink"}),
		SinkErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "errors_total",
			Help:      "Total number of sink publish errors",
		}, []string{"sink"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRowRejected counts a dataset row rejected at load time.
func RecordRowRejected(reason string) {
	DefaultMetrics.RowsRejected.WithLabelValues(reason).Inc()
}

// RecordEnriched increments the enriched records counter.
func RecordEnriched() {
	DefaultMetrics.RecordsEnriched.Inc()
}

// RecordPriceComputed increments the computed prices counter.
func RecordPriceComputed() {
	DefaultMetrics.PricesComputed.Inc()
}

// RecordFailed counts a record-level failure at a transform stage.
func RecordFailed(stage string) {
	DefaultMetrics.RecordsFailed.WithLabelValues(stage).Inc()
}

// RecordWindowClosed counts a closed window and updates the open gauge.
func RecordWindowClosed(openWindows int) {
	DefaultMetrics.WindowsClosed.Inc()
	DefaultMetrics.WindowsOpen.Set(float64(openWindows))
}

// RecordLateDrop counts a late record dropped by the aggregator.
func RecordLateDrop() {
	DefaultMetrics.LateRecordsDropped.Inc()
}

// UpdateWatermark updates a lot's event-time watermark gauge.
func UpdateWatermark(lot string, unixSeconds int64) {
	DefaultMetrics.WatermarkSeconds.WithLabelValues(lot).Set(float64(unixSeconds))
}

// RecordAggregatePublished counts a published aggregate per sink.
func RecordAggregatePublished(sink string) {
	DefaultMetrics.AggregatesPublished.WithLabelValues(sink).Inc()
}

// RecordSinkError counts a sink publish error.
func RecordSinkError(sink string) {
	DefaultMetrics.SinkErrors.WithLabelValues(sink).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
