package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks whether the transport is currently open.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "predictkit_ws_active_connections",
		Help: "Number of active stream connections",
	})

	// ConnectionStateGauge exposes the connection state machine position.
	ConnectionStateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "predictkit_ws_connection_state",
		Help: "Connection state (0=disconnected 1=connecting 2=connected 3=reconnecting 4=closed)",
	})

	// SubscriptionCount tracks the size of the subscription registry.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "predictkit_ws_subscriptions",
		Help: "Number of active asset subscriptions",
	})

	// UnsubscriptionsTotal counts explicit unsubscriptions.
	UnsubscriptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_ws_unsubscriptions_total",
		Help: "Total number of asset unsubscriptions",
	})

	// MessagesReceivedTotal counts inbound message elements.
	MessagesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_ws_messages_received_total",
		Help: "Total number of stream messages received",
	})

	// MessagesDroppedTotal counts messages dropped on a full outbound buffer.
	MessagesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_ws_messages_dropped_total",
		Help: "Total number of stream messages dropped",
	})

	// ProtocolErrorsTotal counts unparseable inbound frames.
	ProtocolErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_ws_protocol_errors_total",
		Help: "Total number of malformed stream frames skipped",
	})

	// ReconnectAttemptsTotal counts reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_ws_reconnect_attempts_total",
		Help: "Total number of reconnection attempts",
	})

	// ReconnectFailuresTotal counts failed reconnection attempts.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predictkit_ws_reconnect_failures_total",
		Help: "Total number of failed reconnection attempts",
	})

	// ConnectionDuration observes how long connections stay up.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "predictkit_ws_connection_duration_seconds",
		Help:    "Duration of stream connections before disconnect",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
)
