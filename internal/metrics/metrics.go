// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	// Lifecycle actions by action and result (ok, conflict, rejected, error).
	Transitions *prometheus.CounterVec

	// Reads served by the local mirror because the primary failed.
	MirrorFallbacks prometheus.Counter

	// Tickets moved into the factory flow by the expiry sweep.
	Expired prometheus.Counter

	// Chat replies by role and node key.
	ChatReplies *prometheus.CounterVec
}

// New builds a Metrics on its own registry, with Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "givinghand",
			Name:      "ticket_transitions_total",
			Help:      "Ticket lifecycle actions by action and result.",
		}, []string{"action", "result"}),
		MirrorFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "givinghand",
			Name:      "mirror_fallbacks_total",
			Help:      "Reads answered from the local mirror.",
		}),
		Expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "givinghand",
			Name:      "tickets_expired_total",
			Help:      "Donation tickets handed to the factory flow after expiry.",
		}),
		ChatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "givinghand",
			Name:      "chat_replies_total",
			Help:      "Chat-bot replies by role and node.",
		}, []string{"role", "node"}),
	}
	reg.MustRegister(
		m.Transitions,
		m.MirrorFallbacks,
		m.Expired,
		m.ChatReplies,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
