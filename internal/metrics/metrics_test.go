package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.PartTransferred(Download, 100)
	m.PartTransferred(Download, 50)
	m.PartTransferred(Upload, 10)
	m.ChecksumFailure()
	m.PartsResumed(3)
	m.PartsResumed(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.parts.WithLabelValues(Download)))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.bytes.WithLabelValues(Download)))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.bytes.WithLabelValues(Upload)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checksumFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.resumedParts))
}

func TestMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(reg)
	require.NoError(t, err)
	b, err := New(reg)
	require.NoError(t, err)

	a.PartTransferred(Upload, 1)
	b.PartTransferred(Upload, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.parts.WithLabelValues(Upload)))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PartTransferred(Download, 1)
		m.ChecksumFailure()
		m.PartsResumed(1)
	})
}
