package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ringline_connections",
		Help: "Number of live signaling connections",
	})
	ActiveCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ringline_active_calls",
		Help: "Number of in-progress call sessions",
	})
)

// Counters
var (
	CallsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ringline_calls_started_total",
		Help: "Total call sessions created",
	})
	CallsEndedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ringline_calls_ended_total",
		Help: "Total call sessions removed by end reason",
	}, []string{"reason"})
	SignalErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ringline_signal_errors_total",
		Help: "Total error events returned to senders by code",
	}, []string{"code"})
	DeliveredFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ringline_delivered_frames_total",
		Help: "Total outbound frames accepted by a connection send buffer",
	})
	DeliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ringline_delivery_failures_total",
		Help: "Total send failures that evicted a connection",
	})
)
