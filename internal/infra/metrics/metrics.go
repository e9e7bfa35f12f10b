// Package metrics exposes Prometheus counters for WhatsApp notification
// processing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "whatsapp_gateway"

// Metrics holds the collectors of one gateway instance, registered on their
// own registry.
type Metrics struct {
	registry *prometheus.Registry

	outgoingCreated      *prometheus.CounterVec
	notificationsCreated prometheus.Counter
	notificationsUpdated prometheus.Counter
	dispatched           *prometheus.CounterVec
	dispatchFailures     *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outgoingCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outgoing_messages_created_total",
			Help:      "Outgoing WhatsApp messages created, by initial state",
		}, []string{"state"}),
		notificationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "WhatsApp notification records created",
		}),
		notificationsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_updated_total",
			Help:      "Existing notification records reused for a resend",
		}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_batches_total",
			Help:      "Batches handed to the transport, by origin",
		}, []string{"origin"}),
		dispatchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_failures_total",
			Help:      "Transport failures swallowed during dispatch, by origin",
		}, []string{"origin"}),
	}

	m.registry.MustRegister(
		m.outgoingCreated,
		m.notificationsCreated,
		m.notificationsUpdated,
		m.dispatched,
		m.dispatchFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordOutgoingCreated records one outgoing message created in state.
func (m *Metrics) RecordOutgoingCreated(state string) {
	m.outgoingCreated.WithLabelValues(state).Inc()
}

// RecordNotifications records how many notification rows a reconciliation
// created and updated.
func (m *Metrics) RecordNotifications(created, updated int) {
	m.notificationsCreated.Add(float64(created))
	m.notificationsUpdated.Add(float64(updated))
}

// RecordDispatch records a batch handed to the transport and whether it failed.
func (m *Metrics) RecordDispatch(origin string, failed bool) {
	m.dispatched.WithLabelValues(origin).Inc()
	if failed {
		m.dispatchFailures.WithLabelValues(origin).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
