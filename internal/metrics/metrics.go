package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total emails sent",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_failures_total",
			Help: "Total failed emails",
		},
	)

	JobsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobs_expired_total",
			Help: "Total jobs dropped past their grace window",
		},
	)

	PlansBuilt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plans_built_total",
			Help: "Total successful daily planning runs",
		},
	)

	PlanFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plan_failures_total",
			Help: "Total aborted daily planning runs",
		},
	)

	ItemsScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "items_scheduled_total",
			Help: "Total scheduled items submitted as jobs",
		},
	)
)

func Init() {
	prometheus.MustRegister(
		EmailsSent,
		EmailFailures,
		JobsExpired,
		PlansBuilt,
		PlanFailures,
		ItemsScheduled,
	)
}
