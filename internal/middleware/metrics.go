package middleware

import (
	"strconv"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request latency by matched route.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
