package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Auth flow metrics

	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procura",
		Name:      "logins_total",
		Help:      "Login attempts, by outcome.",
	}, []string{"outcome"})

	RegistrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procura",
		Name:      "registrations_total",
		Help:      "User registrations, by provider.",
	}, []string{"provider"})

	TokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procura",
		Name:      "session_tokens_issued_total",
		Help:      "Session tokens minted.",
	})

	SessionRevocationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procura",
		Name:      "session_revocations_total",
		Help:      "Whole-account session revocations (logout-all, password change).",
	})

	ResetRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procura",
		Name:      "password_reset_requests_total",
		Help:      "Password reset requests accepted (match or not).",
	})

	RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procura",
		Name:      "rate_limited_total",
		Help:      "Requests refused by the rate limiter, by endpoint.",
	}, []string{"endpoint"})

	CSRFRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procura",
		Name:      "csrf_rejections_total",
		Help:      "Mutating requests rejected by the CSRF guard.",
	})

	// Delivery outcomes: the flows never surface these to callers, so they
	// are observable only here and in the logs.

	DeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procura",
		Name:      "deliveries_total",
		Help:      "Outbound email/SMS deliveries, by channel and outcome.",
	}, []string{"channel", "outcome"})

	HousekeepingPrunedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procura",
		Name:      "housekeeping_pruned_total",
		Help:      "Expired credential records pruned by the janitor.",
	}, []string{"kind"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "procura",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procura",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		LoginsTotal,
		RegistrationsTotal,
		TokensIssuedTotal,
		SessionRevocationsTotal,
		ResetRequestsTotal,
		RateLimitedTotal,
		CSRFRejectionsTotal,
		DeliveriesTotal,
		HousekeepingPrunedTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}
