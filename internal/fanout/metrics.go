package fanout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ConnectedClients prometheus.Gauge
	EventsBroadcast  *prometheus.CounterVec
	EventsDropped    *prometheus.CounterVec
	RelayErrors      prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "connected_clients",
			Help:      "Number of connected WebSocket clients",
		}),
		EventsBroadcast: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "events_broadcast_total",
			Help:      "Events broadcast to local clients",
		}, []string{"type"}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "events_dropped_total",
			Help:      "Per-client deliveries dropped because the send buffer was full",
		}, []string{"type"}),
		RelayErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "relay_errors_total",
			Help:      "Broker messages that could not be relayed",
		}),
	}
}
