// Package metrics holds the Prometheus collectors for the bridge. All
// recording methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "discordbridge"

// Action outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics is a set of collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	eventsEnqueued     *prometheus.CounterVec
	eventsDispatched   *prometheus.CounterVec
	botMessagesDropped prometheus.Counter
	listeners          *prometheus.GaugeVec
	actions            *prometheus.CounterVec
	connectionState    prometheus.Gauge
	ticks              prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_enqueued_total",
			Help:      "Gateway events queued by the client callbacks.",
		}, []string{"kind"}),
		eventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dispatched_total",
			Help:      "Events drained and fanned out on the tick loop.",
		}, []string{"kind"}),
		botMessagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_messages_dropped_total",
			Help:      "Messages authored by bot accounts and dropped before queueing.",
		}),
		listeners: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listeners",
			Help:      "Registered listeners per event kind.",
		}, []string{"kind"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Outbound actions by name and outcome.",
		}, []string{"action", "outcome"}),
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "Connection state: 0 uninitialized, 1 running, 2 shutting down.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Host tick loop iterations.",
		}),
	}

	m.registry.MustRegister(
		m.eventsEnqueued,
		m.eventsDispatched,
		m.botMessagesDropped,
		m.listeners,
		m.actions,
		m.connectionState,
		m.ticks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the private registry for scraping and tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) EventEnqueued(kind string) {
	if m != nil {
		m.eventsEnqueued.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) EventDispatched(kind string) {
	if m != nil {
		m.eventsDispatched.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) BotMessageDropped() {
	if m != nil {
		m.botMessagesDropped.Inc()
	}
}

func (m *Metrics) SetListeners(kind string, n int) {
	if m != nil {
		m.listeners.WithLabelValues(kind).Set(float64(n))
	}
}

func (m *Metrics) Action(action, outcome string) {
	if m != nil {
		m.actions.WithLabelValues(action, outcome).Inc()
	}
}

func (m *Metrics) SetConnectionState(state int) {
	if m != nil {
		m.connectionState.Set(float64(state))
	}
}

func (m *Metrics) Tick() {
	if m != nil {
		m.ticks.Inc()
	}
}
