package observability

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PrometheusHandler adapts the Prometheus scrape handler to a Gin route.
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	if handler == nil {
		return func(c *gin.Context) {
			c.String(http.StatusServiceUnavailable, "metrics exporter not configured")
		}
	}
	return gin.WrapH(handler)
}
