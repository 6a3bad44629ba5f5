package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestLabels_toPrometheusLabels(t *testing.T) {
	tests := []struct {
		name     string
		labels   Labels
		expected prometheus.Labels
	}{
		{
			name:     "empty labels",
			labels:   Labels{},
			expected: prometheus.Labels{},
		},
		{
			name: "all labels set",
			labels: Labels{
				Environment:   "production",
				Region:        "us-east-1",
				CloudProvider: "aws",
			},
			expected: prometheus.Labels{
				"environment":    "production",
				"region":         "us-east-1",
				"cloud_provider": "aws",
			},
		},
		{
			name: "partial labels",
			labels: Labels{
				Environment: "staging",
			},
			expected: prometheus.Labels{
				"environment": "staging",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.labels.toPrometheusLabels())
		})
	}
}

func TestNew(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := New(reg)
	require.NoError(t, err)
	require.NotNil(t, m)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, metricFamilies)
}

func TestNewWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewWithLabels(reg, Labels{Environment: "test", Region: "eu-west-1"})
	require.NoError(t, err)

	m.UpdateWindowMetrics(4, 2.5)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() != "averager_window_size" {
			continue
		}
		found = true
		require.NotEmpty(t, mf.GetMetric())
		labelMap := make(map[string]string)
		for _, label := range mf.GetMetric()[0].GetLabel() {
			labelMap[label.GetName()] = label.GetValue()
		}
		require.Equal(t, "test", labelMap["environment"])
		require.Equal(t, "eu-west-1", labelMap["region"])
	}
	require.True(t, found, "averager_window_size not gathered")
}

func TestNew_RegistrationError(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(reg)
	require.NoError(t, err)

	// Second registration should fail (duplicate metrics)
	m, err := New(reg)
	require.Nil(t, m, "expected nil metrics on duplicate registration")

	var alreadyRegistered prometheus.AlreadyRegisteredError
	require.ErrorAs(t, err, &alreadyRegistered)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.IncError("test")
		m.RecordSubmit("p", OutcomeIngested)
		m.RecordIngest(1, 2, 3)
		m.UpdateWindowMetrics(1, 1)
		m.SetWindowCapacity(10)
		m.IncFetchInFlight()
		m.DecFetchInFlight()
		m.RecordFetch("p", StatusSuccess, 1, 0.1)
		m.RecordPublish(nil, 0.1)
	})
}

func TestMetrics_RecordIngest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordIngest(3, 0, 1)
	m.RecordIngest(2, 2, 0)

	require.Equal(t, float64(2), testutil.ToFloat64(m.ingests))
	require.Equal(t, float64(5), testutil.ToFloat64(m.valuesAccepted))
	require.Equal(t, float64(2), testutil.ToFloat64(m.valuesEvicted))
	require.Equal(t, float64(1), testutil.ToFloat64(m.duplicatesDropped))
}

func TestMetrics_WindowGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.SetWindowCapacity(10)
	m.UpdateWindowMetrics(3, 4)

	require.Equal(t, float64(10), testutil.ToFloat64(m.windowCapacity))
	require.Equal(t, float64(3), testutil.ToFloat64(m.windowSize))
	require.Equal(t, float64(4), testutil.ToFloat64(m.windowAverage))

	m.UpdateWindowMetrics(0, 0)
	require.Zero(t, testutil.ToFloat64(m.windowSize))
	require.Zero(t, testutil.ToFloat64(m.windowAverage))
}

func TestMetrics_RecordFetch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordFetch("p", StatusSuccess, 4, 0.01)
	m.RecordFetch("p", "timeout", 0, 0.5)
	m.RecordFetch("e", "malformed_payload", 0, 0.02)

	require.Equal(t, float64(1), testutil.ToFloat64(m.fetchCalls.WithLabelValues("p", StatusSuccess)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.fetchCalls.WithLabelValues("p", "timeout")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.fetchCalls.WithLabelValues("e", "malformed_payload")))
	require.Equal(t, float64(4), testutil.ToFloat64(m.fetchedValues.WithLabelValues("p")))
	require.Equal(t, float64(2), testutil.ToFloat64(m.errors.WithLabelValues(ErrTypeFetch)))
	require.Equal(t, 2, testutil.CollectAndCount(m.fetchDuration))
}

func TestMetrics_FetchInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.IncFetchInFlight()
	m.IncFetchInFlight()
	require.Equal(t, float64(2), testutil.ToFloat64(m.fetchInFlight))

	m.DecFetchInFlight()
	require.Equal(t, float64(1), testutil.ToFloat64(m.fetchInFlight))
}

func TestMetrics_RecordSubmit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordSubmit("p", OutcomeIngested)
	m.RecordSubmit("p", OutcomeIngested)
	m.RecordSubmit("x", OutcomeInvalid)

	require.Equal(t, float64(2), testutil.ToFloat64(m.submits.WithLabelValues("p", OutcomeIngested)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.submits.WithLabelValues("x", OutcomeInvalid)))
}

func TestMetrics_RecordPublish(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordPublish(nil, 0.01)
	m.RecordPublish(errors.New("broker down"), 0.2)

	require.Equal(t, float64(1), testutil.ToFloat64(m.published.WithLabelValues(StatusSuccess)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.published.WithLabelValues(StatusError)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.errors.WithLabelValues(ErrTypePublish)))
}
