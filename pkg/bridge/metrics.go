package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what every device loop does. A nil *Metrics records nothing.
type Metrics struct {
	polls          *prometheus.CounterVec
	pollErrors     *prometheus.CounterVec
	telemetrySent  *prometheus.CounterVec
	propertiesSent *prometheus.CounterVec
	sendErrors     *prometheus.CounterVec
	persistErrors  *prometheus.CounterVec
	connectErrors  *prometheus.CounterVec
	loopsRunning   prometheus.Gauge
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_polls_total",
			Help: "Poll cycles started per device.",
		}, []string{"device"}),
		pollErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_poll_errors_total",
			Help: "Poll cycles skipped because the instrument could not be read.",
		}, []string{"device", "kind"}),
		telemetrySent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_telemetry_sent_total",
			Help: "Telemetry snapshots forwarded to the cloud.",
		}, []string{"device"}),
		propertiesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_properties_sent_total",
			Help: "Property snapshots forwarded to the cloud.",
		}, []string{"device"}),
		sendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_send_errors_total",
			Help: "Failed cloud sends.",
		}, []string{"device", "operation"}),
		persistErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_persist_errors_total",
			Help: "Failed writes of the last forwarded telemetry.",
		}, []string{"device"}),
		connectErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_connect_errors_total",
			Help: "Failed cloud connection attempts.",
		}, []string{"device"}),
		loopsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bridge_loops_running",
			Help: "Device loops currently running.",
		}),
	}

	registerer.MustRegister(m.polls, m.pollErrors, m.telemetrySent, m.propertiesSent,
		m.sendErrors, m.persistErrors, m.connectErrors, m.loopsRunning)
	return m
}

func (m *Metrics) poll(device string) {
	if m != nil {
		m.polls.WithLabelValues(device).Inc()
	}
}

func (m *Metrics) pollError(device, kind string) {
	if m != nil {
		m.pollErrors.WithLabelValues(device, kind).Inc()
	}
}

func (m *Metrics) telemetryForwarded(device string) {
	if m != nil {
		m.telemetrySent.WithLabelValues(device).Inc()
	}
}

func (m *Metrics) propertiesForwarded(device string) {
	if m != nil {
		m.propertiesSent.WithLabelValues(device).Inc()
	}
}

func (m *Metrics) sendError(device, operation string) {
	if m != nil {
		m.sendErrors.WithLabelValues(device, operation).Inc()
	}
}

func (m *Metrics) persistError(device string) {
	if m != nil {
		m.persistErrors.WithLabelValues(device).Inc()
	}
}

func (m *Metrics) connectError(device string) {
	if m != nil {
		m.connectErrors.WithLabelValues(device).Inc()
	}
}

func (m *Metrics) loopStarted() {
	if m != nil {
		m.loopsRunning.Inc()
	}
}

func (m *Metrics) loopStopped() {
	if m != nil {
		m.loopsRunning.Dec()
	}
}
