package m1xep

import "sync/atomic"

// ConnectionMetrics contains atomic metrics for a connection.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ConnectionMetrics struct {
	// FramesSent indicates the number of frames written to the panel.
	FramesSent atomic.Uint64
	// FramesRecv indicates the number of frames decoded from the panel.
	FramesRecv atomic.Uint64
	// DecodeErrCount indicates the number of lines that failed to decode.
	DecodeErrCount atomic.Uint64
	// WriteErrCount indicates the number of failed writes.
	WriteErrCount atomic.Uint64

	// RequestCount indicates the number of correlated requests issued.
	RequestCount atomic.Uint64
	// RequestTimeoutCount indicates the number of requests rejected by timeout.
	RequestTimeoutCount atomic.Uint64
	// PendingRequests indicates the number of requests waiting for a response.
	PendingRequests atomic.Int64

	// ConnRetryGauge indicates the number of reconnect attempts since the last successful connect.
	ConnRetryGauge atomic.Uint32
	// ReconnectCount indicates the total number of reconnect attempts.
	ReconnectCount atomic.Uint64
}

func (m *ConnectionMetrics) incFramesSent() {
	m.FramesSent.Add(1)
}

func (m *ConnectionMetrics) addFramesRecv(n int) {
	if n > 0 {
		m.FramesRecv.Add(uint64(n))
	}
}

func (m *ConnectionMetrics) incDecodeErrCount() {
	m.DecodeErrCount.Add(1)
}

func (m *ConnectionMetrics) incWriteErrCount() {
	m.WriteErrCount.Add(1)
}

func (m *ConnectionMetrics) incRequestCount() {
	m.RequestCount.Add(1)
}

func (m *ConnectionMetrics) incRequestTimeoutCount() {
	m.RequestTimeoutCount.Add(1)
}

func (m *ConnectionMetrics) incPendingRequests() {
	m.PendingRequests.Add(1)
}

func (m *ConnectionMetrics) decPendingRequests() {
	m.PendingRequests.Add(-1)
}

func (m *ConnectionMetrics) incConnRetryGauge() {
	m.ConnRetryGauge.Add(1)
	m.ReconnectCount.Add(1)
}

func (m *ConnectionMetrics) resetConnRetryGauge() {
	m.ConnRetryGauge.Store(0)
}
