package infrastructure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "weathersub"

// PrometheusMetricsCollector implements the MetricsCollector port with Prometheus
// counters, gauges and histograms registered on the given registerer
type PrometheusMetricsCollector struct {
	cacheRequests  *prometheus.CounterVec
	weatherCalls   *prometheus.CounterVec
	lifecycle      *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	batchRuns      *prometheus.CounterVec
	batchDuration  *prometheus.HistogramVec
	batchSent      *prometheus.GaugeVec
	batchFailed    *prometheus.GaugeVec
	batchLastRunAt *prometheus.GaugeVec
}

// NewPrometheusMetricsCollector registers the application metrics on reg
func NewPrometheusMetricsCollector(reg prometheus.Registerer) *PrometheusMetricsCollector {
	factory := promauto.With(reg)

	return &PrometheusMetricsCollector{
		cacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "weather_cache_requests_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		weatherCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "weather_provider_calls_total",
			Help:      "Weather provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		lifecycle: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "subscription_events_total",
			Help:      "Subscription lifecycle transitions.",
		}, []string{"event"}),
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deliveries_total",
			Help:      "Weather update deliveries by frequency and outcome.",
		}, []string{"frequency", "outcome"}),
		batchRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batch_runs_total",
			Help:      "Completed batch runs per frequency.",
		}, []string{"frequency"}),
		batchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a batch run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"frequency"}),
		batchSent: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "batch_last_sent",
			Help:      "Deliveries that succeeded in the most recent run.",
		}, []string{"frequency"}),
		batchFailed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "batch_last_failed",
			Help:      "Deliveries that failed in the most recent run.",
		}, []string{"frequency"}),
		batchLastRunAt: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "batch_last_run_timestamp_seconds",
			Help:      "Unix time the most recent run finished.",
		}, []string{"frequency"}),
	}
}

func (m *PrometheusMetricsCollector) RecordCacheHit() {
	m.cacheRequests.WithLabelValues("hit").Inc()
}

func (m *PrometheusMetricsCollector) RecordCacheMiss() {
	m.cacheRequests.WithLabelValues("miss").Inc()
}

func (m *PrometheusMetricsCollector) RecordWeatherAPICall(provider string, success bool) {
	m.weatherCalls.WithLabelValues(provider, outcome(success)).Inc()
}

func (m *PrometheusMetricsCollector) RecordLifecycleEvent(event string) {
	m.lifecycle.WithLabelValues(event).Inc()
}

func (m *PrometheusMetricsCollector) RecordDelivery(frequency string, success bool) {
	m.deliveries.WithLabelValues(frequency, outcome(success)).Inc()
}

func (m *PrometheusMetricsCollector) RecordBatch(frequency string, duration time.Duration, sent, failed int) {
	m.batchRuns.WithLabelValues(frequency).Inc()
	m.batchDuration.WithLabelValues(frequency).Observe(duration.Seconds())
	m.batchSent.WithLabelValues(frequency).Set(float64(sent))
	m.batchFailed.WithLabelValues(frequency).Set(float64(failed))
	m.batchLastRunAt.WithLabelValues(frequency).SetToCurrentTime()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
