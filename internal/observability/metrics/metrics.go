package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the webhook and booking flow.
type BookingMetrics struct {
	inboundTotal         *prometheus.CounterVec
	outboundTotal        *prometheus.CounterVec
	webhookLatency       *prometheus.HistogramVec
	bookingOutcomes      *prometheus.CounterVec
	reservationConflicts prometheus.Counter
	sweepEvictions       *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orent",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound WhatsApp webhooks",
		}, []string{"event_type", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orent",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound WhatsApp sends",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orent",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of WhatsApp webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
		bookingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orent",
			Subsystem: "booking",
			Name:      "outcomes_total",
			Help:      "Terminal booking flow outcomes",
		}, []string{"outcome"}),
		reservationConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orent",
			Subsystem: "booking",
			Name:      "reservation_conflicts_total",
			Help:      "Slot picks rejected because another user holds the slot",
		}),
		sweepEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orent",
			Subsystem: "booking",
			Name:      "sweep_evictions_total",
			Help:      "Entries evicted by the background sweep",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.inboundTotal,
		m.outboundTotal,
		m.webhookLatency,
		m.bookingOutcomes,
		m.reservationConflicts,
		m.sweepEvictions,
	)
	return m
}

func (m *BookingMetrics) ObserveInbound(eventType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(eventType, status).Inc()
}

func (m *BookingMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveWebhookLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(eventType).Observe(seconds)
}

func (m *BookingMetrics) ObserveBookingOutcome(outcome string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveReservationConflict() {
	if m == nil {
		return
	}
	m.reservationConflicts.Inc()
}

func (m *BookingMetrics) ObserveSweepEviction(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.sweepEvictions.WithLabelValues(kind).Add(float64(count))
}
