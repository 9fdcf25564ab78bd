package core

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the purely-observational counters the main loop updates from
// Protocol.transition's outputs. It never gates behavior: Protocol.transition
// stays a pure function of FSM state (spec §4.2), metrics are recorded by the
// loop that dispatches its outputs, not by the FSM itself.
type Metrics struct {
	Connected     prometheus.Counter
	Upgraded      prometheus.Counter
	UpgradeFailed prometheus.Counter
	Disconnected  prometheus.Counter
	RunningPeers  prometheus.Gauge
}

// NewMetrics builds a Metrics registered under the given prometheus
// registerer. Passing a fresh prometheus.NewRegistry() per Supervisor avoids
// collisions when a process runs more than one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "p2p_supervisor",
			Name:      "connected_total",
			Help:      "Physical connections established, by any direction.",
		}),
		Upgraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "p2p_supervisor",
			Name:      "upgraded_total",
			Help:      "Connections successfully promoted to running peers.",
		}),
		UpgradeFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "p2p_supervisor",
			Name:      "upgrade_failed_total",
			Help:      "Upgrade attempts that failed.",
		}),
		Disconnected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "p2p_supervisor",
			Name:      "disconnected_total",
			Help:      "Peers torn down, commanded or spontaneous.",
		}),
		RunningPeers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "p2p_supervisor",
			Name:      "running_peers",
			Help:      "Current size of the peer registry.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Connected, m.Upgraded, m.UpgradeFailed, m.Disconnected, m.RunningPeers)
	}
	return m
}
