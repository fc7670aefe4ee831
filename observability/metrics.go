// Package observability exposes relay counters to Prometheus and to the heartbeat log.
package observability

import (
	"chat-relay/domain"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chat_relay"

// RelayStats is a point-in-time copy of the relay counters.
type RelayStats struct {
	Participants      int64
	FramesReceived    uint64
	EventsBroadcast   uint64
	DeliveryFailures  uint64
	Disconnects       uint64
	HandshakeFailures uint64
}

// RelayMetrics records relay activity. Every method is safe for concurrent use.
type RelayMetrics struct {
	participants      prometheus.Gauge
	framesReceived    prometheus.Counter
	eventsBroadcast   *prometheus.CounterVec
	deliveryFailures  prometheus.Counter
	disconnects       prometheus.Counter
	handshakeFailures prometheus.Counter

	// Mirrors of the Prometheus values for GetLatest
	participantCount      atomic.Int64
	frameCount            atomic.Uint64
	broadcastCount        atomic.Uint64
	failureCount          atomic.Uint64
	disconnectCount       atomic.Uint64
	handshakeFailureCount atomic.Uint64
}

// NewRelayMetrics registers the relay collectors on registerer.
func NewRelayMetrics(registerer prometheus.Registerer) *RelayMetrics {
	factory := promauto.With(registerer)
	return &RelayMetrics{
		participants: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Number of registered participants",
		}),
		framesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Total number of frames read from participants",
		}),
		eventsBroadcast: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_broadcast_total",
			Help:      "Total number of events fanned out, by kind",
		}, []string{"kind"}),
		deliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Total number of frame writes that failed during a broadcast",
		}),
		disconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disconnects_total",
			Help:      "Total number of participants removed after a read failure",
		}),
		handshakeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_failures_total",
			Help:      "Total number of connections dropped before registration",
		}),
	}
}

func (m *RelayMetrics) SetParticipants(n int) {
	m.participants.Set(float64(n))
	m.participantCount.Store(int64(n))
}

func (m *RelayMetrics) IncrFramesReceived() {
	m.framesReceived.Inc()
	m.frameCount.Add(1)
}

func (m *RelayMetrics) IncrEventsBroadcast(kind domain.Kind) {
	m.eventsBroadcast.WithLabelValues(kind.String()).Inc()
	m.broadcastCount.Add(1)
}

func (m *RelayMetrics) IncrDeliveryFailures() {
	m.deliveryFailures.Inc()
	m.failureCount.Add(1)
}

func (m *RelayMetrics) IncrDisconnects() {
	m.disconnects.Inc()
	m.disconnectCount.Add(1)
}

func (m *RelayMetrics) IncrHandshakeFailures() {
	m.handshakeFailures.Inc()
	m.handshakeFailureCount.Add(1)
}

func (m *RelayMetrics) GetLatest() RelayStats {
	return RelayStats{
		Participants:      m.participantCount.Load(),
		FramesReceived:    m.frameCount.Load(),
		EventsBroadcast:   m.broadcastCount.Load(),
		DeliveryFailures:  m.failureCount.Load(),
		Disconnects:       m.disconnectCount.Load(),
		HandshakeFailures: m.handshakeFailureCount.Load(),
	}
}
