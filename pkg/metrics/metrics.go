package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "echo", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "echo", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	DirectoryUsersSynced = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "echo", Name: "directory_users_synced_total", Help: "Number of user records upserted from the identity provider directory."},
	)
	CRMLinkOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "echo", Name: "crm_link_outcomes_total", Help: "Per-user CRM propagation outcomes."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(DirectoryUsersSynced)
	reg.MustRegister(CRMLinkOutcomes)
}
