package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPInFlight tracks requests currently being served, mostly waiting on a model.
var HTTPInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "calculator_http_requests_in_flight",
	Help: "HTTP requests currently being handled",
})

// HTTPMetrics records request count, latency and in-flight requests by route.
// Scrapes of skipPath (usually /metrics) are not recorded.
func HTTPMetrics(skipPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath() // route pattern, not raw URL
		if route == "" {
			route = "unknown"
		}
		if skipPath != "" && route == skipPath {
			c.Next()
			return
		}

		HTTPInFlight.Inc()
		start := time.Now()
		defer func() {
			HTTPInFlight.Dec()
			code := strconv.Itoa(c.Writer.Status())
			HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, code).Inc()
			HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		}()

		c.Next()
	}
}
