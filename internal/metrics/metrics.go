// Package metrics exposes prometheus counters for the pollers and playback
// coordinator. Collectors are registered on the default registry and served
// from the API server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StatusPolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lingocast_status_polls_total",
		Help: "Job status polls issued against the processing service.",
	})

	StageTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lingocast_stage_transitions_total",
		Help: "Observed job stage transitions.",
	}, []string{"stage"})

	ManifestDiscoveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lingocast_manifest_discoveries_total",
		Help: "Manifest discovery outcomes per protocol.",
	}, []string{"protocol", "result"})

	BackendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lingocast_backend_errors_total",
		Help: "Backend call failures by operation.",
	}, []string{"operation"})

	AdapterSwitches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lingocast_adapter_switches_total",
		Help: "Completed playback adapter switches.",
	})
)
