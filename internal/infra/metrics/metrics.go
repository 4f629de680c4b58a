package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "predlozhka_submissions_total",
		Help: "The total number of accepted post submissions",
	})

	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predlozhka_decisions_total",
		Help: "The total number of resolved moderator decisions",
	}, []string{"action", "outcome"})

	DeliveryFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predlozhka_delivery_failures_total",
		Help: "The total number of per-recipient transport failures",
	}, []string{"stage"})
)
