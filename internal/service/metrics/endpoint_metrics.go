package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "exovista",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of disposition endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exovista",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by disposition endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)

	IdempotentReplays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exovista",
			Subsystem: "api",
			Name:      "idempotent_replays_total",
			Help:      "Analyze responses served from the idempotency cache",
		},
	)

	StreamSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "exovista",
			Subsystem: "api",
			Name:      "stream_sessions",
			Help:      "Open websocket stream sessions",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, IdempotentReplays, StreamSessions)
	})
}
