// Package metrics exposes Prometheus metrics for the progress service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
)

const namespace = "kanso"

// EngineEvaluations counts progress computations by operation.
var EngineEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "engine_evaluations_total",
	Help:      "Progress engine computations.",
}, []string{"operation"})

// EngineAnomalies counts repaired input records (clamped values, duplicate days).
var EngineAnomalies = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "engine_anomalies_total",
	Help:      "Progress records repaired before aggregation.",
}, []string{"kind"})

// ObserveEvaluation counts one engine run and the records it repaired.
func ObserveEvaluation(operation string, a progress.Anomalies) {
	EngineEvaluations.WithLabelValues(operation).Inc()
	if !a.Any() {
		return
	}
	EngineAnomalies.WithLabelValues("clamped").Add(float64(a.Clamped))
	EngineAnomalies.WithLabelValues("duplicate").Add(float64(a.Duplicates))
}

// AchievementsAwarded counts newly written achievement rows.
var AchievementsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "achievements_awarded_total",
	Help:      "Achievements awarded.",
}, []string{"type"})

// WorkerJobs counts processed recalculation jobs by result.
var WorkerJobs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "worker_jobs_total",
	Help:      "Progress worker jobs processed.",
}, []string{"result"})

var WorkerQueueDropped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "worker_queue_dropped_total",
	Help:      "Jobs dropped because the worker queue was full.",
})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "http_requests_total",
	Help:      "HTTP requests served.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})
