package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

var (
	RequestTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_sharing_transitions_total",
			Help: "Matching request lifecycle transitions by target status and outcome",
		},
		[]string{"transition", "outcome"},
	)

	RequestsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_sharing_requests_created_total",
			Help: "Matching request creation attempts by outcome",
		},
		[]string{"outcome"},
	)

	SharingToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_sharing_toggles_total",
			Help: "Room sharing flag changes",
		},
		[]string{"enabled"},
	)

	ContractCompensations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "room_sharing_contract_compensations_total",
			Help: "Contracts cancelled after a landlord approval lost a race",
		},
	)

	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "room_sharing_external_call_duration_seconds",
			Help:    "Latency of calls to marketplace services",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation", "outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "room_sharing_http_request_duration_seconds",
			Help: "Duration of served HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)
