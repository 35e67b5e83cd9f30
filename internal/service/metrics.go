package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	screeningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_screenings_total",
		Help: "Order screenings by resulting provider status",
	}, []string{"status"})

	feedbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_feedback_total",
		Help: "Feedback submissions by action and outcome",
	}, []string{"action", "outcome"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_api_errors_total",
		Help: "Failed calls to the screening provider",
	}, []string{"op"})

	apiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fraud_api_duration_seconds",
		Help:    "Latency of screening provider calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)
