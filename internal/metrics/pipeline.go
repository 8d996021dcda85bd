package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline metrics.
var (
	pipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "factlens",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage", "status"},
	)

	retrievalStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "factlens",
			Name:      "retrieval_steps_total",
			Help:      "Executed retrieval plan steps by tool and outcome",
		},
		[]string{"tool", "status"},
	)

	plannerFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "factlens",
			Name:      "planner_fallback_total",
			Help:      "Turns where planner output was unusable and the fallback plan ran",
		},
	)
)

func init() {
	prometheus.MustRegister(pipelineStageDuration)
	prometheus.MustRegister(retrievalStepsTotal)
	prometheus.MustRegister(plannerFallbackTotal)
}

// Status label values.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusEmpty    = "empty"
	StatusFallback = "fallback"
)

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage, status string, d time.Duration) {
	pipelineStageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

// IncRetrievalStep counts one executed plan step.
func IncRetrievalStep(tool, status string) {
	retrievalStepsTotal.WithLabelValues(tool, status).Inc()
}

// IncPlannerFallback counts one fallback plan.
func IncPlannerFallback() {
	plannerFallbackTotal.Inc()
}
