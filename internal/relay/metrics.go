package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons recorded on the dropped counter.
const (
	dropNotOpen       = "not_open"
	dropNotJoined     = "not_joined"
	dropMalformed     = "malformed"
	dropUnknownType   = "unknown_type"
	dropUnauthorized  = "unauthorized"
	dropBrokerBacklog = "broker_backlog"
	dropBrokerError   = "broker_error"
)

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	Connections  prometheus.Gauge
	ActiveGroups prometheus.Gauge
	Messages     *prometheus.CounterVec
	Deliveries   prometheus.Counter
	Dropped      *prometheus.CounterVec
}

// NewMetrics registers the relay collectors with reg.
// A nil reg uses a private registry, which keeps tests isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "relateos",
			Subsystem: "relay",
			Name:      "connections",
			Help:      "Open relay WebSocket connections.",
		}),
		ActiveGroups: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "relateos",
			Subsystem: "relay",
			Name:      "active_groups",
			Help:      "Groups with at least one local observer.",
		}),
		Messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relateos",
			Subsystem: "relay",
			Name:      "messages_total",
			Help:      "Accepted inbound frames by type.",
		}, []string{"type"}),
		Deliveries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "relateos",
			Subsystem: "relay",
			Name:      "deliveries_total",
			Help:      "Frames handed to observer outbound queues.",
		}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relateos",
			Subsystem: "relay",
			Name:      "dropped_total",
			Help:      "Frames dropped by reason.",
		}, []string{"reason"}),
	}
}
