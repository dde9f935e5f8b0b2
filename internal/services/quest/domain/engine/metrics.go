package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeAccepted  = "accepted"
	outcomeRejected  = "rejected"
	outcomeCommitted = "committed_with_rejection"
	outcomeFailed    = "failed"
)

var (
	commandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronoquest",
		Subsystem: "engine",
		Name:      "commands_total",
		Help:      "Commands handled, by command type and outcome.",
	}, []string{"type", "outcome"})

	rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronoquest",
		Subsystem: "engine",
		Name:      "rejections_total",
		Help:      "Rejections returned to callers, by code.",
	}, []string{"code"})

	scheduledDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronoquest",
		Subsystem: "engine",
		Name:      "scheduled_deliveries_total",
		Help:      "Self-delivered commands accepted by the host, by command type.",
	}, []string{"type"})

	transfersMade = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronoquest",
		Subsystem: "engine",
		Name:      "transfers_total",
		Help:      "Outgoing transfers attempted, by kind and outcome.",
	}, []string{"kind", "outcome"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chronoquest",
		Subsystem: "engine",
		Name:      "command_duration_seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"type"})
)
