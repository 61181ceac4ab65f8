// Package metrics exposes the service's operational Prometheus collectors.
// These describe the broadcaster itself and are unrelated to the KPI payload
// the service streams.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SubscribersConnected tracks the number of live streaming subscribers.
var SubscribersConnected = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "freightpulse_subscribers_connected",
		Help: "Number of currently registered streaming subscribers",
	},
)

// SubscribersDropped counts subscribers evicted for failed delivery.
var SubscribersDropped = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "freightpulse_subscribers_dropped_total",
		Help: "Total subscribers removed after a failed or stalled delivery",
	},
	[]string{"reason"},
)

// TicksTotal counts simulator advances driven by the coordinator.
var TicksTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "freightpulse_ticks_total",
		Help: "Total snapshot ticks produced by the simulator",
	},
)

// BroadcastLatency records how long one fan-out cycle takes.
var BroadcastLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "freightpulse_broadcast_latency_seconds",
		Help:    "Latency in seconds to fan one snapshot out to all subscribers",
		Buckets: prometheus.DefBuckets,
	},
)

// KafkaPublishErrors counts failed writes of the KPI feed to Kafka.
var KafkaPublishErrors = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "freightpulse_kafka_publish_errors_total",
		Help: "Total failed snapshot publishes to the Kafka KPI feed",
	},
)

func init() {
	prometheus.MustRegister(SubscribersConnected, SubscribersDropped)
	prometheus.MustRegister(TicksTotal, BroadcastLatency, KafkaPublishErrors)
}
