package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tasklight/tasklight/internal/ratelimit"
	"github.com/tasklight/tasklight/pkg/metrics"
)

// RedisRateLimitMiddleware enforces the Redis fixed-window limiter for the
// given namespace. Redis failures fail closed: a limiter that cannot count
// must not wave traffic through on the endpoints it protects.
func RedisRateLimitMiddleware(limiter *ratelimit.RedisLimiter, namespace string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), namespace, ClientKey(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed"})
			return
		}
		if !allowed {
			c.Header("Retry-After", "60")
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
