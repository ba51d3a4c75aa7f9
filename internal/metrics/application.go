package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ApplicationMetrics tracks task workflow and background job activity.
type ApplicationMetrics struct {
	TasksCreatedTotal    *prometheus.CounterVec // kind: single, recurring
	SubmissionsTotal     *prometheus.CounterVec // late: true, false
	ReviewsTotal         *prometheus.CounterVec // decision
	TasksMarkedOverdue   prometheus.Counter
	RemindersSentTotal   *prometheus.CounterVec // status
	SchedulerRunsTotal   *prometheus.CounterVec // job, status
	SchedulerRunDuration *prometheus.HistogramVec
	ExportJobsTotal      *prometheus.CounterVec // status
	ExportQueueDepth     prometheus.Gauge
	EmailsSentTotal      *prometheus.CounterVec // template, status
}

func newApplicationMetrics() *ApplicationMetrics {
	return &ApplicationMetrics{
		TasksCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formdesk_tasks_created_total",
				Help: "Tasks created, by creation kind",
			},
			[]string{"kind"},
		),
		SubmissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formdesk_submissions_total",
				Help: "Task submissions, by lateness",
			},
			[]string{"late"},
		),
		ReviewsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formdesk_reviews_total",
				Help: "Submission reviews, by decision",
			},
			[]string{"decision"},
		),
		TasksMarkedOverdue: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "formdesk_tasks_marked_overdue_total",
				Help: "Tasks moved to overdue by the scheduler",
			},
		),
		RemindersSentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formdesk_deadline_reminders_total",
				Help: "Deadline reminder emails, by status",
			},
			[]string{"status"},
		),
		SchedulerRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formdesk_scheduler_runs_total",
				Help: "Scheduled job runs, by job and outcome",
			},
			[]string{"job", "status"},
		),
		SchedulerRunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formdesk_scheduler_run_duration_seconds",
				Help:    "Scheduled job run time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		ExportJobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formdesk_export_jobs_total",
				Help: "Result export jobs, by final status",
			},
			[]string{"status"},
		),
		ExportQueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "formdesk_export_queue_depth",
				Help: "Export jobs waiting for a worker",
			},
		),
		EmailsSentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formdesk_emails_sent_total",
				Help: "Notification emails, by template and status",
			},
			[]string{"template", "status"},
		),
	}
}
