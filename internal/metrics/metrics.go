package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rez_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rez_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rez_payment_webhook_events_total",
		Help: "Payment provider webhook events, labeled by event type and outcome",
	}, []string{"event_type", "outcome"})

	CreditsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rez_credits_granted_total",
		Help: "Credits added to account balances, labeled by grant source",
	}, []string{"source"})

	CheckoutSessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rez_checkout_sessions_created_total",
		Help: "Hosted checkout sessions created",
	})

	TaskRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rez_scheduled_task_runs_total",
		Help: "Scheduled task executions, labeled by task and status",
	}, []string{"task", "status"})
)
