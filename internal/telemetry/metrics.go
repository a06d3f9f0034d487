package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VerificationsTotal counts finished verifications by method and outcome status.
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment verifications by payment method and outcome status.",
	}, []string{"method", "status"})

	// RemoteDuration observes round trips to the POS backend, labelled by
	// HTTP status code or "error" when no response arrived.
	RemoteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_verification_remote_duration_seconds",
		Help:    "Latency of POS transaction lookups.",
		Buckets: prometheus.DefBuckets,
	}, []string{"code"})
)
