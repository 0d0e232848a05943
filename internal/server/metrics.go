package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dp",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, per route and status code",
	}, []string{"route", "code"})
	metricFeedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dp",
		Subsystem: "http",
		Name:      "feed_clients",
		Help:      "Number of connected WebSocket feed clients",
	})
)
