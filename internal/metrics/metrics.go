package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APICallsTotal tracks terminal outcomes of remote calls per method
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaybot_api_calls_total",
			Help: "Total number of remote API calls by terminal outcome",
		},
		[]string{"method", "outcome"},
	)

	// APIRetriesTotal tracks retried attempts per method and reason
	APIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaybot_api_retries_total",
			Help: "Total number of retried remote API attempts",
		},
		[]string{"method", "reason"},
	)

	// HandlerRunsTotal tracks finished handler tasks per command and result
	HandlerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaybot_handler_runs_total",
			Help: "Total number of finished handler tasks",
		},
		[]string{"command", "result"},
	)

	// HandlersInflight tracks handler tasks currently holding a permit
	HandlersInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relaybot_handlers_inflight",
			Help: "Handler tasks currently executing",
		},
	)

	// UpdatesTotal tracks updates received by the poller
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaybot_updates_total",
			Help: "Total number of updates received",
		},
		[]string{"kind"},
	)
)
