package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "averager"

	// Status label values for success/error metrics
	StatusSuccess = "success"
	StatusError   = "error"

	Fetch   = "fetch"
	Publish = "publish"
)

// Labels holds constant labels applied to all metrics.
// These are useful for distinguishing metrics from multiple averager instances.
type Labels struct {
	Environment   string // Deployment environment (e.g., "production", "staging", "development")
	Region        string // Cloud region (e.g., "us-east-1", "eu-west-1")
	CloudProvider string // Cloud provider (e.g., "aws", "oci", "gcp")
}

// toPrometheusLabels converts Labels to prometheus.Labels map.
// Only non-empty labels are included to avoid empty label values.
func (l Labels) toPrometheusLabels() prometheus.Labels {
	labels := prometheus.Labels{}
	if l.Environment != "" {
		labels["environment"] = l.Environment
	}
	if l.Region != "" {
		labels["region"] = l.Region
	}
	if l.CloudProvider != "" {
		labels["cloud_provider"] = l.CloudProvider
	}
	return labels
}

type Metrics struct {
	// Window state
	windowSize     prometheus.Gauge
	windowAverage  prometheus.Gauge
	windowCapacity prometheus.Gauge

	// Ingest counters
	ingests           prometheus.Counter
	valuesAccepted    prometheus.Counter
	valuesEvicted     prometheus.Counter
	duplicatesDropped prometheus.Counter
	errors            *prometheus.CounterVec

	// Submissions by outcome
	submits *prometheus.CounterVec

	// Provider fetch metrics
	fetchCalls    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	fetchInFlight prometheus.Gauge
	fetchedValues *prometheus.CounterVec

	// Ingest event publication
	published          *prometheus.CounterVec
	publishingDuration prometheus.Histogram
}

// New creates a new Metrics instance and registers all metrics with the provided registerer.
// Returns an error if any metric registration fails.
// For metrics with constant labels (e.g., environment), use NewWithLabels instead.
func New(reg prometheus.Registerer) (*Metrics, error) {
	return NewWithLabels(reg, Labels{})
}

// NewWithLabels creates a new Metrics instance with constant labels applied to all metrics.
func NewWithLabels(reg prometheus.Registerer, labels Labels) (*Metrics, error) {
	promLabels := labels.toPrometheusLabels()
	if len(promLabels) > 0 {
		reg = prometheus.WrapRegistererWith(promLabels, reg)
	}

	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		windowSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "window_size",
			Help:      "Number of values currently held in the window",
		}),
		windowAverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "window_average",
			Help:      "Arithmetic mean of the current window (0 when empty)",
		}),
		windowCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "window_capacity",
			Help:      "Maximum number of values the window retains",
		}),
		ingests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingests_total",
			Help:      "Total number of batches merged into the window",
		}),
		valuesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "values_accepted_total",
			Help:      "Total number of new values merged into the window",
		}),
		valuesEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "values_evicted_total",
			Help:      "Total number of values evicted from the front of the window",
		}),
		duplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Total number of fetched values dropped as already present",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total errors by type",
		}, []string{"type"}),
		submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "submits_total",
			Help:      "Total submissions by category and outcome",
		}, []string{"category", "outcome"}),
		fetchCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Fetch,
			Name:      "calls_total",
			Help:      "Total provider fetches by category and status",
		}, []string{"category", "status"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Fetch,
			Name:      "duration_seconds",
			Help:      "Provider fetch duration in seconds",
			// Buckets cover the 500ms default timeout: 1ms, 5ms, 10ms, 25ms, 50ms,
			// 100ms, 250ms, 500ms, 1s, 2.5s
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"category"}),
		fetchInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Fetch,
			Name:      "in_flight",
			Help:      "Number of provider fetches currently in progress",
		}),
		fetchedValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Fetch,
			Name:      "values_total",
			Help:      "Total values returned by providers, duplicates included",
		}, []string{"category"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Publish,
			Name:      "events_total",
			Help:      "Total ingest events published by status",
		}, []string{"status"}),
		publishingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Publish,
			Name:      "duration_seconds",
			Help:      "Time to publish one ingest event",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}

	err := errors.Join(
		reg.Register(m.windowSize),
		reg.Register(m.windowAverage),
		reg.Register(m.windowCapacity),
		reg.Register(m.ingests),
		reg.Register(m.valuesAccepted),
		reg.Register(m.valuesEvicted),
		reg.Register(m.duplicatesDropped),
		reg.Register(m.errors),
		reg.Register(m.submits),
		reg.Register(m.fetchCalls),
		reg.Register(m.fetchDuration),
		reg.Register(m.fetchInFlight),
		reg.Register(m.fetchedValues),
		reg.Register(m.published),
		reg.Register(m.publishingDuration),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Error type constants. Fetch failures are additionally tracked via
// fetchCalls{status=<reason>}.
const (
	ErrTypeInvalidCategory = "invalid_category"
	ErrTypeFetch           = "fetch"
	ErrTypePublish         = "publish"
	ErrTypeAbandoned       = "abandoned"
)

// Submit outcome label values.
const (
	OutcomeIngested    = "ingested"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeInvalid     = "invalid_category"
	OutcomeAbandoned   = "abandoned"
)

// IncError increments the error counter for the given error type.
func (m *Metrics) IncError(errType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errType).Inc()
}

// RecordSubmit counts one submission outcome for a category token.
func (m *Metrics) RecordSubmit(category, outcome string) {
	if m == nil {
		return
	}
	m.submits.WithLabelValues(category, outcome).Inc()
}

// RecordIngest records the effect of a single batch merge.
func (m *Metrics) RecordIngest(accepted, evicted, duplicates int) {
	if m == nil {
		return
	}
	m.ingests.Inc()
	if accepted > 0 {
		m.valuesAccepted.Add(float64(accepted))
	}
	if evicted > 0 {
		m.valuesEvicted.Add(float64(evicted))
	}
	if duplicates > 0 {
		m.duplicatesDropped.Add(float64(duplicates))
	}
}

// UpdateWindowMetrics updates window state gauges.
func (m *Metrics) UpdateWindowMetrics(size int, average float64) {
	if m == nil {
		return
	}
	m.windowSize.Set(float64(size))
	m.windowAverage.Set(average)
}

// SetWindowCapacity records the configured window capacity.
func (m *Metrics) SetWindowCapacity(capacity int) {
	if m == nil {
		return
	}
	m.windowCapacity.Set(float64(capacity))
}

// IncFetchInFlight increments the in-flight fetch gauge.
func (m *Metrics) IncFetchInFlight() {
	if m == nil {
		return
	}
	m.fetchInFlight.Inc()
}

// DecFetchInFlight decrements the in-flight fetch gauge.
func (m *Metrics) DecFetchInFlight() {
	if m == nil {
		return
	}
	m.fetchInFlight.Dec()
}

// RecordFetch records a provider fetch outcome. status is StatusSuccess or a
// failure reason such as "timeout" or "malformed_payload".
func (m *Metrics) RecordFetch(category, status string, values int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.fetchCalls.WithLabelValues(category, status).Inc()
	m.fetchDuration.WithLabelValues(category).Observe(durationSeconds)
	if status != StatusSuccess {
		m.errors.WithLabelValues(ErrTypeFetch).Inc()
	}
	if values > 0 {
		m.fetchedValues.WithLabelValues(category).Add(float64(values))
	}
}

// RecordPublish records an ingest event publish attempt with duration.
// Pass nil error for successful publishes, non-nil for failures.
func (m *Metrics) RecordPublish(err error, durationSeconds float64) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
		m.errors.WithLabelValues(ErrTypePublish).Inc()
	}
	m.published.WithLabelValues(status).Inc()
	m.publishingDuration.Observe(durationSeconds)
}
