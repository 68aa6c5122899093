package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates the engine's Prometheus metrics. One collector is
// created per process; the namespace isolates test instances.
type Collector struct {
	// dispatch
	submitsTotal   *prometheus.CounterVec
	skipsTotal     *prometheus.CounterVec
	submitDuration *prometheus.HistogramVec
	estimatedCost  *prometheus.CounterVec

	// polling
	pollsTotal     *prometheus.CounterVec
	pollTransients *prometheus.CounterVec

	// reconciliation
	assetsIngested *prometheus.CounterVec
	ingestFailures *prometheus.CounterVec
	assetBytes     *prometheus.HistogramVec

	// batches
	batchesTotal  *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec

	// http surface
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpRequestSize *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates a metrics collector under namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.submitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_submits_total",
			Help:      "Total number of generation submits",
		},
		[]string{"provider", "model", "outcome"}, // outcome: immediate, async, error
	)

	c.skipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_skips_total",
			Help:      "Total number of models skipped for missing input",
		},
		[]string{"model", "reason"},
	)

	c.submitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_submit_duration_seconds",
			Help:      "Generation submit duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.estimatedCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_estimated_cost_total",
			Help:      "Total estimated generation cost in USD",
		},
		[]string{"provider", "model"},
	)

	c.pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_queries_total",
			Help:      "Total number of job status queries",
		},
		[]string{"provider", "status"},
	)

	c.pollTransients = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_transient_errors_total",
			Help:      "Total number of transient status-query errors",
		},
		[]string{"provider"},
	)

	c.assetsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_ingested_total",
			Help:      "Total number of assets registered with the media store",
		},
		[]string{"model", "kind"},
	)

	c.ingestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_ingest_failures_total",
			Help:      "Total number of media-store registration failures",
		},
		[]string{"model"},
	)

	c.assetBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asset_size_bytes",
			Help:      "Downloaded asset size in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"kind"},
	)

	c.batchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_batches_total",
			Help:      "Total number of orchestration runs",
		},
		[]string{"phase"}, // terminal phase: completed, failed
	)

	c.batchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_batch_duration_seconds",
			Help:      "Orchestration run duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"phase"},
	)

	c.httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request body size in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"method", "path"},
	)

	return c
}

// RecordSubmit records one dispatcher submit.
func (c *Collector) RecordSubmit(provider, model, outcome string, duration time.Duration) {
	c.submitsTotal.WithLabelValues(provider, model, outcome).Inc()
	c.submitDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordSkip records one validation skip.
func (c *Collector) RecordSkip(model, reason string) {
	c.skipsTotal.WithLabelValues(model, reason).Inc()
}

// RecordEstimatedCost accumulates the pre-dispatch cost estimate.
func (c *Collector) RecordEstimatedCost(provider, model string, dollars float64) {
	if dollars > 0 {
		c.estimatedCost.WithLabelValues(provider, model).Add(dollars)
	}
}

// RecordPoll records one status query result.
func (c *Collector) RecordPoll(provider, status string) {
	c.pollsTotal.WithLabelValues(provider, status).Inc()
}

// RecordPollTransient records one transient status-query error.
func (c *Collector) RecordPollTransient(provider string) {
	c.pollTransients.WithLabelValues(provider).Inc()
}

// RecordIngest records one successful media-store registration.
func (c *Collector) RecordIngest(model, kind string, bytes int) {
	c.assetsIngested.WithLabelValues(model, kind).Inc()
	c.assetBytes.WithLabelValues(kind).Observe(float64(bytes))
}

// RecordIngestFailure records one failed media-store registration.
func (c *Collector) RecordIngestFailure(model string) {
	c.ingestFailures.WithLabelValues(model).Inc()
}

// RecordHTTPRequest records one served HTTP request. path should be
// pre-normalized to keep label cardinality bounded.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize int64) {
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if requestSize > 0 {
		c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
}

// RecordBatch records one finished orchestration run.
func (c *Collector) RecordBatch(phase string, duration time.Duration) {
	c.batchesTotal.WithLabelValues(phase).Inc()
	c.batchDuration.WithLabelValues(phase).Observe(duration.Seconds())
}
