package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess            = "success"
	outcomeInvalidRequest     = "invalid_request"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeInactive           = "inactive"
	outcomeUnverified         = "unverified"
	outcomeRateLimited        = "rate_limited"
)

var loginOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ejare_login_attempts_total",
		Help: "Login attempts by outcome",
	},
	[]string{"outcome"},
)
