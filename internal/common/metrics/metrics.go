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

// Workflow metrics.
var (
	RoutesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "routes_issued_total",
			Help: "Total number of route codes persisted",
		},
	)

	RouteCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "route_collisions_total",
			Help: "Generated codes rejected because they already existed",
		},
	)

	Responses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "responses_total",
			Help: "Confirm/decline submissions by outcome",
		},
		[]string{"decision", "result"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Relay delivery attempts by template and status",
		},
		[]string{"template", "status"},
	)

	ParticipantsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participants_imported_total",
			Help: "Imported rows by result",
		},
		[]string{"result"},
	)
)
