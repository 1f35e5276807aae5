package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/backend/pkg/metrics"
)

// unmatchedRoute stands in for requests that hit no registered route, so
// probe traffic against arbitrary paths cannot grow the label space.
const unmatchedRoute = "unmatched"

// Metrics observes request latency per registered route pattern.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		metrics.APILatency.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
