// Package metrics exposes prometheus collectors for the sync coordinator:
//
//	tradeportal_mutations_total{kind}          state changes applied locally
//	tradeportal_remote_errors_total{op}        failed backend calls
//	tradeportal_mode_transitions_total{mode}   online/offline flips
//	tradeportal_online                         1 while the backend is reachable
//	tradeportal_pending_ops                    outbox length
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Mutations       *prometheus.CounterVec
	RemoteErrors    *prometheus.CounterVec
	ModeTransitions *prometheus.CounterVec
	Online          prometheus.Gauge
	PendingOps      prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeportal_mutations_total",
				Help: "State mutations applied locally",
			},
			[]string{"kind"},
		),
		RemoteErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeportal_remote_errors_total",
				Help: "Backend calls that failed or timed out",
			},
			[]string{"op"},
		),
		ModeTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeportal_mode_transitions_total",
				Help: "Switches between online and offline mode",
			},
			[]string{"mode"},
		),
		Online: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradeportal_online",
				Help: "1 when the backend is reachable, 0 in offline mode",
			},
		),
		PendingOps: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradeportal_pending_ops",
				Help: "Remote writes queued while offline",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Mutations, m.RemoteErrors, m.ModeTransitions, m.Online, m.PendingOps)
	}
	return m
}

func (m *Metrics) Mutation(kind string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(kind).Inc()
}

func (m *Metrics) RemoteError(op string) {
	if m == nil {
		return
	}
	m.RemoteErrors.WithLabelValues(op).Inc()
}

// SetOnline records the mode and counts the transition.
func (m *Metrics) SetOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.Online.Set(1)
		m.ModeTransitions.WithLabelValues("online").Inc()
		return
	}
	m.Online.Set(0)
	m.ModeTransitions.WithLabelValues("offline").Inc()
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingOps.Set(float64(n))
}
