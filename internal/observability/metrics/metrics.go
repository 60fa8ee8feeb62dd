package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulerMetrics exposes counters/histograms for the scheduling flows.
type SchedulerMetrics struct {
	inboundTotal      *prometheus.CounterVec
	resolutionsTotal  *prometheus.CounterVec
	bookingsTotal     *prometheus.CounterVec
	availabilityTotal *prometheus.CounterVec
	webhookLatency    *prometheus.HistogramVec
}

func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound WhatsApp webhooks",
		}, []string{"message_type", "status"}),
		resolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "timeparse",
			Name:      "resolutions_total",
			Help:      "Total datetime resolutions by method and outcome",
		}, []string{"method", "outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Total booking operations",
		}, []string{"operation", "status"}),
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "booking",
			Name:      "availability_queries_total",
			Help:      "Total availability queries",
		}, []string{"degraded"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scheduler",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of WhatsApp webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"message_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.resolutionsTotal, m.bookingsTotal, m.availabilityTotal, m.webhookLatency)
	return m
}

func (m *SchedulerMetrics) ObserveInbound(messageType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(messageType, status).Inc()
}

func (m *SchedulerMetrics) ObserveResolution(method, outcome string) {
	if m == nil {
		return
	}
	m.resolutionsTotal.WithLabelValues(method, outcome).Inc()
}

func (m *SchedulerMetrics) ObserveBooking(operation, status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(operation, status).Inc()
}

func (m *SchedulerMetrics) ObserveAvailability(degraded bool) {
	if m == nil {
		return
	}
	label := "false"
	if degraded {
		label = "true"
	}
	m.availabilityTotal.WithLabelValues(label).Inc()
}

func (m *SchedulerMetrics) ObserveWebhookLatency(messageType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(messageType).Observe(seconds)
}
