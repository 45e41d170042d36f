package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

// SalesMetrics counts sale state transitions.
type SalesMetrics struct {
	transitions *prometheus.CounterVec
}

func NewSalesMetrics(reg prometheus.Registerer) *SalesMetrics {
	if reg == nil {
		return &SalesMetrics{}
	}
	m := &SalesMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_transitions_total",
			Help:      "Sales entering each status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.transitions)
	return m
}

// RecordTransition counts a sale reaching status.
func (m *SalesMetrics) RecordTransition(status enums.SaleStatus) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status.String())).Inc()
}

// OutboxMetrics tracks the publisher loop.
type OutboxMetrics struct {
	published prometheus.Counter
	failed    *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	m := &OutboxMetrics{
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox events delivered to the broker.",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_failed_total",
			Help:      "Outbox publish failures by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.published, m.failed)
	return m
}

func (m *OutboxMetrics) IncPublished() {
	if m == nil || m.published == nil {
		return
	}
	m.published.Inc()
}

// IncFailed takes "retry" or "terminal".
func (m *OutboxMetrics) IncFailed(outcome string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(outcome)).Inc()
}
