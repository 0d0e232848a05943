package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPolls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dp",
		Subsystem: "monitor",
		Name:      "polls_total",
		Help:      "Total number of interface address polls",
	})
	metricResolveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dp",
		Subsystem: "monitor",
		Name:      "resolve_failures_total",
		Help:      "Total number of polls where the interface address could not be resolved",
	})
	metricAddressChanges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dp",
		Subsystem: "monitor",
		Name:      "address_changes_total",
		Help:      "Total number of interface address changes, including the first resolution",
	})
)
