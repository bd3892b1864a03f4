// Package metrics exports panel connection metrics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/go-elkm1/dispatch"
	"github.com/arloliu/go-elkm1/m1xep"
	"github.com/arloliu/go-elkm1/message"
)

const namespace = "elkm1"

// NewRegistry creates a registry with the Go runtime and process collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler returns the HTTP handler serving the metrics of reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Source provides the metrics and state of a panel connection.
type Source interface {
	GetMetrics() *m1xep.ConnectionMetrics
	State() m1xep.ConnState
}

type counterDesc struct {
	desc  *prometheus.Desc
	value func(m *m1xep.ConnectionMetrics) float64
}

// Collector is a prometheus.Collector reading the atomic metrics of a connection on scrape.
type Collector struct {
	src      Source
	panel    string
	counters []counterDesc
	gauges   []counterDesc
	state    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for src. panel is used as the value of the "panel" label.
func NewCollector(src Source, panel string) *Collector {
	labels := []string{"panel"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "conn", name), help, labels, nil)
	}

	return &Collector{
		src:   src,
		panel: panel,
		counters: []counterDesc{
			{desc("frames_sent_total", "Frames written to the panel."),
				func(m *m1xep.ConnectionMetrics) float64 { return float64(m.FramesSent.Load()) }},
			{desc("frames_received_total", "Frames decoded from the panel."),
				func(m *m1xep.ConnectionMetrics) float64 { return float64(m.FramesRecv.Load()) }},
			{desc("decode_errors_total", "Lines that failed to decode."),
				func(m *m1xep.ConnectionMetrics) float64 { return float64(m.DecodeErrCount.Load()) }},
			{desc("write_errors_total", "Failed frame writes."),
				func(m *m1xep.ConnectionMetrics) float64 { return float64(m.WriteErrCount.Load()) }},
			{desc("requests_total", "Correlated requests issued."),
				func(m *m1xep.ConnectionMetrics) float64 { return float64(m.RequestCount.Load()) }},
			{desc("request_timeouts_total", "Correlated requests rejected by timeout."),
				func(m *m1xep.ConnectionMetrics) float64 { return float64(m.RequestTimeoutCount.Load()) }},
			{desc("reconnects_total", "Reconnect attempts."),
				func(m *m1xep.ConnectionMetrics) float64 { return float64(m.ReconnectCount.Load()) }},
		},
		gauges: []counterDesc{
			{desc("pending_requests", "Requests waiting for a response."),
				func(m *m1xep.ConnectionMetrics) float64 { return float64(m.PendingRequests.Load()) }},
			{desc("retry_attempts", "Reconnect attempts since the last successful connect."),
				func(m *m1xep.ConnectionMetrics) float64 { return float64(m.ConnRetryGauge.Load()) }},
		},
		state: prometheus.NewDesc(prometheus.BuildFQName(namespace, "conn", "state"),
			"Current connection state, 1 for the active state.", []string{"panel", "state"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.counters {
		ch <- d.desc
	}
	for _, d := range c.gauges {
		ch <- d.desc
	}
	ch <- c.state
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.src.GetMetrics()
	for _, d := range c.counters {
		ch <- prometheus.MustNewConstMetric(d.desc, prometheus.CounterValue, d.value(m), c.panel)
	}
	for _, d := range c.gauges {
		ch <- prometheus.MustNewConstMetric(d.desc, prometheus.GaugeValue, d.value(m), c.panel)
	}

	current := c.src.State()
	for _, s := range []m1xep.ConnState{
		m1xep.NotConnectedState, m1xep.ConnectingState, m1xep.AuthenticatingState, m1xep.ConnectedState,
	} {
		v := 0.0
		if s == current {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, v, c.panel, s.String())
	}
}

// Subscriber registers message handlers on a dispatcher.
type Subscriber interface {
	Subscribe(key string, h dispatch.Handler) (unsubscribe func())
}

// MessageCounter counts dispatched messages by type code.
type MessageCounter struct {
	vec *prometheus.CounterVec
}

// NewMessageCounter creates a message counter and registers it on reg.
func NewMessageCounter(reg prometheus.Registerer) *MessageCounter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dispatch",
		Name:      "messages_total",
		Help:      "Messages dispatched by type code.",
	}, []string{"panel", "type"})
	reg.MustRegister(vec)

	return &MessageCounter{vec: vec}
}

// Watch counts every message dispatched by s under the given panel label.
func (mc *MessageCounter) Watch(s Subscriber, panel string) (unsubscribe func()) {
	return s.Subscribe(dispatch.Wildcard, func(msg message.Message) {
		mc.vec.WithLabelValues(panel, msg.TypeCode()).Inc()
	})
}

// Instrument registers a Collector for conn on reg and starts counting its messages.
func Instrument(reg prometheus.Registerer, conn *m1xep.Connection, panel string) (*MessageCounter, error) {
	if err := reg.Register(NewCollector(conn, panel)); err != nil {
		return nil, err
	}

	mc := NewMessageCounter(reg)
	mc.Watch(conn, panel)

	return mc, nil
}
