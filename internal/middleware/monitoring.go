package middleware

import (
	"strconv"
	"time"

	"QH_quranhabits/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Monitor records request counts and latencies per route template, so paths
// with ids collapse into one series.
func Monitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
