package queue

import "github.com/prometheus/client_golang/prometheus"

// metrics is nil when the handle was built without WithMetrics.
type metrics struct {
	sent     *prometheus.CounterVec
	received *prometheus.CounterVec
	deleted  *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	m := &metrics{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_messages_sent_total",
			Help: "Total messages sent to the queue",
		}, []string{"queue"}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_messages_received_total",
			Help: "Total messages received or popped from the queue",
		}, []string{"queue"}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_messages_deleted_total",
			Help: "Total messages deleted from the queue",
		}, []string{"queue"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_operation_errors_total",
			Help: "Total failed queue operations",
		}, []string{"op"}),
	}
	reg.MustRegister(m.sent, m.received, m.deleted, m.errors)
	return m
}

func (m *metrics) incSent(queue string) {
	if m != nil {
		m.sent.WithLabelValues(queue).Inc()
	}
}

func (m *metrics) incReceived(queue string) {
	if m != nil {
		m.received.WithLabelValues(queue).Inc()
	}
}

func (m *metrics) incDeleted(queue string) {
	if m != nil {
		m.deleted.WithLabelValues(queue).Inc()
	}
}

func (m *metrics) incError(op string) {
	if m != nil {
		m.errors.WithLabelValues(op).Inc()
	}
}
