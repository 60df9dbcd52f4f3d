package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Bookings.WithLabelValues(OutcomeOK).Inc()
	m.Bookings.WithLabelValues(OutcomeUnavailable).Add(2)
	m.RegistryDrift.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Bookings.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Bookings.WithLabelValues(OutcomeUnavailable)))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "studyroom_bookings_total")
	assert.Contains(t, names, "studyroom_registry_drift_total")
}
