package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/upstander-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latency per route template. Raw URLs are
// never used as labels because follow-up paths carry reference codes.
// Streams are long-lived and are tracked by the stream gauges instead.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		switch {
		case route == "":
			route = unmatchedRoute
		case route == "/metrics", strings.HasSuffix(route, "/stream"):
			return
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
