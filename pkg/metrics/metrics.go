package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UsersRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "trustfund", Name: "users_registered_total", Help: "Number of registered users."},
	)
	TrustsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "trustfund", Name: "trusts_created_total", Help: "Number of trust goals created."},
	)
	TrustsMarkedReal = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "trustfund", Name: "trusts_marked_real_total", Help: "Number of successful make_real calls."},
	)
	DepositsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "trustfund", Name: "deposits_recorded_total", Help: "Number of deposits appended to the ledger."},
	)
	NotesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "trustfund", Name: "notes_recorded_total", Help: "Number of notes appended to the ledger."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trustfund", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trustfund", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(UsersRegistered, TrustsCreated, TrustsMarkedReal, DepositsRecorded, NotesRecorded)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
