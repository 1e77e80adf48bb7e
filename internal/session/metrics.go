package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionClears = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_session_clears_total",
		Help: "Session clears by reason (logout, expired, verify_failed).",
	}, []string{"reason"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_login_attempts_total",
		Help: "Login attempts by result.",
	}, []string{"result"})
)
