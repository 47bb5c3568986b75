package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RegisterOnFreshRegistry(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()

	require.NoError(t, func() error {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return err
			}
		}
		return nil
	}())
}

func TestMetrics_SamplesClassifiedByRegion(t *testing.T) {
	m := NewMetricsForTesting()

	m.SamplesClassified.WithLabelValues("Europe").Inc()
	m.SamplesClassified.WithLabelValues("Europe").Inc()
	m.SamplesClassified.WithLabelValues("Asia").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SamplesClassified.WithLabelValues("Europe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SamplesClassified.WithLabelValues("Asia")))
}
