// Package metrics exposes reservation engine counters to Prometheus.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "studyroom"

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeNotFound    = "not_found"
	OutcomeForbidden   = "forbidden"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
)

// Metrics holds the engine counters.
type Metrics struct {
	Bookings      *prometheus.CounterVec
	Cancellations *prometheus.CounterVec
	AdminUpdates  *prometheus.CounterVec
	// RegistryDrift counts cancellations that found no slot to revert.
	RegistryDrift prometheus.Counter
}

// New creates the counters and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Book attempts by outcome",
		}, []string{"outcome"}),
		Cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Cancel attempts by outcome",
		}, []string{"outcome"}),
		AdminUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_slot_updates_total",
			Help:      "Administrative slot status overrides by outcome",
		}, []string{"outcome"}),
		RegistryDrift: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_drift_total",
			Help:      "Cancellations whose slot could not be found to revert",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Bookings, m.Cancellations, m.AdminUpdates, m.RegistryDrift)
	}
	return m
}
