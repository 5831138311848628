package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/procura-app/procura/internal/metrics"
	"github.com/procura-app/procura/internal/ratelimit"
)

// RateLimit bounds attempts per client address for a sensitive endpoint.
// gin's ClientIP honors X-Forwarded-For behind a trusted proxy.
func RateLimit(limiter *ratelimit.Limiter, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := limiter.Allow(c.ClientIP())
		if !ok {
			metrics.RateLimitedTotal.WithLabelValues(endpoint).Inc()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"error": "Too many requests, try again later"})
			return
		}
		c.Next()
	}
}
