package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "a2"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests processed."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distributions.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)

	// DemoBookings counts booking outcomes: created|invalid|unavailable|error.
	DemoBookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "demos", Name: "bookings_total", Help: "Demo booking submissions by result."},
		[]string{"result"},
	)

	MongoConnectAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "mongo", Name: "connect_attempts_total", Help: "MongoDB connect attempts by result."},
		[]string{"result"},
	)
	// MongoConnectionState mirrors database.State (0 disconnected, 1 connected, 2 connecting, 3 disconnecting).
	MongoConnectionState = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Subsystem: "mongo", Name: "connection_state", Help: "Current MongoDB connection state."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(HTTPRequests, HTTPDuration)
	reg.MustRegister(DemoBookings)
	reg.MustRegister(MongoConnectAttempts, MongoConnectionState)
}

// GinMiddleware records request counts and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequests.WithLabelValues(c.Request.Method, route, status).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}
