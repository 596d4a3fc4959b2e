package wsclient

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts channel traffic.
type Metrics struct {
	Sent       prometheus.Counter
	Dropped    prometheus.Counter
	Received   prometheus.Counter
	Reconnects prometheus.Counter
	Connected  prometheus.Gauge
}

// NewMetrics creates the channel metrics and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quire", Subsystem: "suggest",
			Name: "requests_sent_total", Help: "Suggestion requests written to the channel.",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quire", Subsystem: "suggest",
			Name: "requests_dropped_total", Help: "Suggestion requests dropped while disconnected or queue full.",
		}),
		Received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quire", Subsystem: "suggest",
			Name: "responses_received_total", Help: "Suggestion responses read from the channel.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quire", Subsystem: "suggest",
			Name: "reconnects_total", Help: "Dial attempts after the first.",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quire", Subsystem: "suggest",
			Name: "connected", Help: "1 while the channel is connected.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Sent, m.Dropped, m.Received, m.Reconnects, m.Connected)
	}
	return m
}
