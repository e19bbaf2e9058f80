package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsPrefix is the prefix used for all metrics
const MetricsPrefix = "token_lists_"

// Service constants
const (
	ServiceTokenList = "token-list"
	ServiceAPI       = "api"
)

// Request status label values
const (
	StatusSuccess     = "success"
	StatusNotModified = "not_modified"
	StatusError       = "error"
	StatusRateLimited = "rate_limited"
)

var (
	// UpdateOutcomesTotal counts finished refresh jobs by outcome
	// Cardinality: 3 (updated, no_change, failed)
	UpdateOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "update_outcomes_total",
			Help: "Total number of token list refresh jobs by outcome",
		},
		[]string{"service", "outcome"},
	)

	// UpdateJoinsTotal counts Update calls that joined an already running job
	UpdateJoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "update_joins_total",
			Help: "Total number of update requests served by an in-flight refresh",
		},
		[]string{"service"},
	)

	// AdoptionsTotal counts adopted documents by where they came from
	// Cardinality: 2 (cache, remote)
	AdoptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "adoptions_total",
			Help: "Total number of token list documents adopted",
		},
		[]string{"service", "source"},
	)

	// AcceptedTimestampGauge is the unix timestamp of the accepted document
	AcceptedTimestampGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricsPrefix + "accepted_timestamp_seconds",
			Help: "Timestamp of the currently accepted token list document",
		},
		[]string{"service"},
	)

	// IndexSizeGauge tracks the size of every derived index
	// Cardinality: 3 (full, curated, safe_names)
	IndexSizeGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricsPrefix + "index_size",
			Help: "Number of entries in a derived token index",
		},
		[]string{"service", "index"},
	)

	// CacheAnomaliesTotal counts unreadable persisted blobs
	CacheAnomaliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "cache_anomalies_total",
			Help: "Total number of persisted blobs that could not be decoded",
		},
		[]string{"service", "kind"},
	)

	// PersistErrorsTotal counts failed write-throughs to the persistent store
	PersistErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "persist_errors_total",
			Help: "Total number of failed writes to the persistent store",
		},
		[]string{"service"},
	)

	// DataFetchCycleDuration is the duration of a full refresh job
	DataFetchCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: MetricsPrefix + "data_fetch_cycle_duration_seconds",
			Help: "Time taken to complete a token list refresh",
		},
		[]string{"service"},
	)

	// RequestsTotal counts HTTP requests by status, outgoing for fetchers and served for the api
	// Cardinality: ~8 (2 services x 4 statuses)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "requests_total",
			Help: "Total number of HTTP requests by status",
		},
		[]string{"service", "status"},
	)

	// ServiceRetryCounter counts retry attempts
	ServiceRetryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "service_retry_attempts_total",
			Help: "Total number of retry attempts per service",
		},
		[]string{"service"},
	)
)

// MetricsWriter provides a unified interface for recording service metrics
type MetricsWriter struct {
	serviceName string
}

// NewMetricsWriter creates a new MetricsWriter for the specified service
func NewMetricsWriter(serviceName string) *MetricsWriter {
	return &MetricsWriter{
		serviceName: serviceName,
	}
}

// GetServiceName returns the service name
func (mw *MetricsWriter) GetServiceName() string {
	return mw.serviceName
}

// RecordUpdateOutcome records a finished refresh job
func (mw *MetricsWriter) RecordUpdateOutcome(outcome string) {
	UpdateOutcomesTotal.WithLabelValues(mw.serviceName, outcome).Inc()
}

// RecordUpdateJoin records an Update call that shared a running job
func (mw *MetricsWriter) RecordUpdateJoin() {
	UpdateJoinsTotal.WithLabelValues(mw.serviceName).Inc()
}

// RecordAdoption records an adopted document and the resulting index sizes
func (mw *MetricsWriter) RecordAdoption(source string, timestamp time.Time, full, curated, safeNames int) {
	AdoptionsTotal.WithLabelValues(mw.serviceName, source).Inc()
	mw.RecordIndexSizes(timestamp, full, curated, safeNames)
}

// RecordIndexSizes records the accepted timestamp and the size of every index
func (mw *MetricsWriter) RecordIndexSizes(timestamp time.Time, full, curated, safeNames int) {
	if !timestamp.IsZero() {
		AcceptedTimestampGauge.WithLabelValues(mw.serviceName).Set(float64(timestamp.Unix()))
	}
	IndexSizeGauge.WithLabelValues(mw.serviceName, "full").Set(float64(full))
	IndexSizeGauge.WithLabelValues(mw.serviceName, "curated").Set(float64(curated))
	IndexSizeGauge.WithLabelValues(mw.serviceName, "safe_names").Set(float64(safeNames))
}

// RecordCacheAnomaly records a persisted blob that could not be decoded
func (mw *MetricsWriter) RecordCacheAnomaly(kind string) {
	CacheAnomaliesTotal.WithLabelValues(mw.serviceName, kind).Inc()
}

// RecordPersistError records a failed write to the persistent store
func (mw *MetricsWriter) RecordPersistError() {
	PersistErrorsTotal.WithLabelValues(mw.serviceName).Inc()
}

// RecordDataFetchCycle records the duration of a data fetch cycle
func (mw *MetricsWriter) RecordDataFetchCycle(duration time.Duration) {
	DataFetchCycleDuration.WithLabelValues(mw.serviceName).Observe(duration.Seconds())
}

// TrackDataFetchCycle returns a func that records the cycle duration when called
func (mw *MetricsWriter) TrackDataFetchCycle() func() {
	start := time.Now()
	return func() {
		mw.RecordDataFetchCycle(time.Since(start))
	}
}

// Implement IHttpStatusHandler interface for MetricsWriter
// OnRequest records an HTTP request with its status
func (mw *MetricsWriter) OnRequest(status string) {
	RequestsTotal.WithLabelValues(mw.serviceName, status).Inc()
}

// OnRetry records an HTTP retry attempt
func (mw *MetricsWriter) OnRetry() {
	ServiceRetryCounter.WithLabelValues(mw.serviceName).Inc()
}
