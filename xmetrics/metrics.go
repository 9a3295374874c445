// Package xmetrics wires a Node's internal counters to
// github.com/prometheus/client_golang, following the teacher's
// Registerer/Gatherer wrapping pattern.
package xmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NodeMetrics holds every counter and gauge a running Node exposes.
type NodeMetrics struct {
	registry *prometheus.Registry

	SyncsAttempted   prometheus.Counter
	SyncsMerged      prometheus.Counter
	EventsInserted   prometheus.Counter
	EventsRejected   prometheus.Counter
	RoundsAdvanced   prometheus.Counter
	RoundsDecided    prometheus.Counter
	EventsEmitted    prometheus.Counter
	PendingEventsGauge prometheus.Gauge
}

// New creates a fresh, independently-registered NodeMetrics. Each node
// in a process gets its own registry, following NewPrefixGatherer's
// one-gatherer-per-component convention.
func New(nodeID string) *NodeMetrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"node": nodeID}

	m := &NodeMetrics{
		registry: reg,
		SyncsAttempted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "hashgraph_syncs_attempted_total",
			Help:        "Gossip sync attempts initiated by this node.",
			ConstLabels: labels,
		}),
		SyncsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "hashgraph_syncs_merged_total",
			Help:        "Gossip syncs that merged at least one new event.",
			ConstLabels: labels,
		}),
		EventsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "hashgraph_events_inserted_total",
			Help:        "Events accepted into the local DAG.",
			ConstLabels: labels,
		}),
		EventsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "hashgraph_events_rejected_total",
			Help:        "Remote events rejected as invalid.",
			ConstLabels: labels,
		}),
		RoundsAdvanced: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "hashgraph_rounds_advanced_total",
			Help:        "New round numbers created by divide_rounds.",
			ConstLabels: labels,
		}),
		RoundsDecided: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "hashgraph_rounds_decided_total",
			Help:        "Rounds whose witnesses were fully decided famous.",
			ConstLabels: labels,
		}),
		EventsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "hashgraph_events_emitted_total",
			Help:        "Events delivered to the application sink in consensus order.",
			ConstLabels: labels,
		}),
		PendingEventsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "hashgraph_pending_events",
			Help:        "Events awaiting a round-received decision.",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(
		m.SyncsAttempted,
		m.SyncsMerged,
		m.EventsInserted,
		m.EventsRejected,
		m.RoundsAdvanced,
		m.RoundsDecided,
		m.EventsEmitted,
		m.PendingEventsGauge,
	)
	return m
}

// Gatherer exposes the node's registry for a /metrics HTTP handler.
func (m *NodeMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
