package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Limiter label values.
const (
	limiterMemory = "memory"
	limiterRedis  = "redis"
	limiterPlayer = "player"
)

var (
	APIAdmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_api_admitted_total",
			Help: "API requests let through by a rate limiter",
		},
		[]string{"limiter", "route"},
	)
	APIThrottled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_api_throttled_total",
			Help: "API requests rejected by a rate limiter",
		},
		[]string{"limiter", "route"},
	)
	APILimiterErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_api_limiter_errors_total",
			Help: "Rate limiter backend failures; the request is let through",
		},
		[]string{"limiter"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "game_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(APIAdmitted, APIThrottled, APILimiterErrors, HTTPDuration)
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// Metrics records the latency of every request.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		HTTPDuration.WithLabelValues(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
