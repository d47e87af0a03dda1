package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(stageRunsTotal, stageLatencySeconds) }

var stageRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stage_runs_total",
		Help: "Stage function invocations by stage and outcome.",
	},
	[]string{"stage", "outcome"}, // outcome: 'ok', 'error'
)

var stageLatencySeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "stage_latency_seconds",
		Help: "Stage function latency distribution in seconds.",
		// Renders run for hours; the top buckets have to cover that.
		Buckets: []float64{1, 5, 30, 60, 300, 900, 3600, 7200, 21600},
	},
	[]string{"stage"},
)

func ObserveStage(stage string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	stageRunsTotal.WithLabelValues(norm(stage), outcome).Inc()
	stageLatencySeconds.WithLabelValues(norm(stage)).Observe(d.Seconds())
}
