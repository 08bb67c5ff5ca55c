package service

import (
	"time"

	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts session operations.
	// Labels:
	//   - operation: "register", "login", "refresh", "logout", ...
	//   - outcome: "ok" or the authsdk kind of the failure
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tuckshop_auth_operations_total",
			Help: "Total number of session operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// OperationDuration tracks how long each operation takes, bcrypt included.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tuckshop_auth_operation_duration_seconds",
			Help:    "Duration of session operations",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	// SessionsSweptTotal counts expired refresh records removed by sweeps.
	SessionsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tuckshop_auth_sessions_swept_total",
			Help: "Total number of expired refresh tokens removed",
		},
	)
)

func observe(operation string, start time.Time, err error) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	OperationsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return authsdk.AsError(err).Kind.String()
}
