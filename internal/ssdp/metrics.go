package ssdp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindAlive    = "alive"
	kindByebye   = "byebye"
	kindResponse = "response"
)

var (
	metricMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dp",
		Subsystem: "ssdp",
		Name:      "messages_sent_total",
		Help:      "Total number of SSDP messages sent, per kind (alive, byebye, response)",
	}, []string{"kind"})
	metricSendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dp",
		Subsystem: "ssdp",
		Name:      "send_failures_total",
		Help:      "Total number of SSDP messages that could not be sent, per kind",
	}, []string{"kind"})
	metricSearchesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dp",
		Subsystem: "ssdp",
		Name:      "searches_received_total",
		Help:      "Total number of well-formed M-SEARCH requests received",
	})
	metricPublished = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dp",
		Subsystem: "ssdp",
		Name:      "published",
		Help:      "Whether the device is currently announced (1) or withdrawn (0)",
	})
)
