package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lamvault",
		Subsystem: "rpc",
		Name:      "requests_total",
		Help:      "RPC requests received, labelled by method.",
	}, []string{"method"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lamvault",
		Subsystem: "rpc",
		Name:      "errors_total",
		Help:      "RPC requests rejected, labelled by method and reason.",
	}, []string{"method", "reason"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lamvault",
		Subsystem: "rpc",
		Name:      "request_duration_seconds",
		Help:      "RPC request latency by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)
