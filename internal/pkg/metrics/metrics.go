// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OnlineConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kura_online_conns",
		Help: "Current live websocket connections.",
	})

	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kura_messages_sent_total",
		Help: "Total messages persisted and dispatched.",
	})
	MessagesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kura_messages_deleted_total",
		Help: "Total messages soft-deleted.",
	})

	FanoutDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kura_fanout_delivered_total",
		Help: "Total events queued to a connection successfully.",
	})
	FanoutDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kura_fanout_dropped_total",
		Help: "Total events dropped because a connection's outbound queue was full.",
	})

	StorageFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kura_storage_failures_total",
		Help: "Total message store calls that failed or timed out.",
	})
)

// Register installs every collector into the default registry.
func Register() {
	prometheus.MustRegister(
		OnlineConns,
		MessagesSent, MessagesDeleted,
		FanoutDelivered, FanoutDropped,
		StorageFailures,
	)
}
