package httpx

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Policy labels for MiddlewareRejections.
const (
	PolicyAuthenticate = "authenticate"
	PolicyAuthorize    = "authorize"
	PolicyRateLimit    = "ratelimit"
)

var (
	// MiddlewareRejections counts requests turned away before the handler.
	// Labels:
	//   - policy: "authenticate", "authorize", "ratelimit"
	//   - code: wire error code
	MiddlewareRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tuckshop_auth_middleware_rejections_total",
			Help: "Total number of requests rejected by authentication middleware",
		},
		[]string{"policy", "code"},
	)
)
