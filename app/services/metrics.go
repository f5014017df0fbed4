package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginRateLimitBlocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ejare_login_rate_limit_blocks_total",
			Help: "Login attempts rejected by the brute-force limiter, by key kind",
		},
		[]string{"key_kind"},
	)

	rateLimitStoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ejare_rate_limit_store_errors_total",
			Help: "Counter store failures that were ignored (fail open)",
		},
	)

	auditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ejare_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full or the emitter was closed",
		},
	)

	auditSinkFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ejare_audit_sink_failures_total",
			Help: "Audit events the sink failed to persist",
		},
	)
)
