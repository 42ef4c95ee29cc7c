// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluations_total",
			Help: "Documents evaluated, by narrative band",
		},
		[]string{"band"},
	)

	CriterionVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "criterion_verdicts_total",
			Help: "Per-criterion verdicts produced by the scoring engine",
		},
		[]string{"status"},
	)

	DocumentsUnevaluable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "documents_unevaluable_total",
			Help: "Documents rejected for containing too little text",
		},
	)

	ExtractionCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_cache_requests_total",
			Help: "Extraction cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	ReportsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_delivered_total",
			Help: "Evaluation report deliveries by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)
