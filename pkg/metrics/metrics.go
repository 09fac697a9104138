package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tasklight", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tasklight", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	AuthOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tasklight", Name: "auth_outcomes_total", Help: "Auth operation outcomes by operation and result."},
		[]string{"operation", "result"},
	)
	TokenRotations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tasklight", Name: "token_rotations_total", Help: "Refresh token rotations by result (rotated, reuse_detected)."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(AuthOutcomes)
	reg.MustRegister(TokenRotations)
}
