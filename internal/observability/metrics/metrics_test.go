package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveInbound("message.received", "handled")
	m.ObserveOutbound("sent")
	m.ObserveWebhookLatency("message.received", 0.5)
	m.ObserveBookingOutcome("confirmed")
	m.ObserveReservationConflict()
	m.ObserveSweepEviction("session", 2)
	m.ObserveSweepEviction("reservation", 0)
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveInbound("event", "status")
	m.ObserveOutbound("sent")
	m.ObserveWebhookLatency("event", 0.1)
	m.ObserveBookingOutcome("cancelled")
	m.ObserveReservationConflict()
	m.ObserveSweepEviction("session", 1)
}
