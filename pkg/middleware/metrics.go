package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/promptkeeper/promptkeeper/pkg/metrics"
)

// Metrics counts handled requests by method, route template and status.
// Requests that match no route are labelled "unmatched" to bound cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
