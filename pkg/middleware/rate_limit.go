package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tasklight/tasklight/internal/ratelimit"
	"github.com/tasklight/tasklight/pkg/metrics"
)

// RateLimitMiddleware enforces the fixed-window limiter for the given
// namespace, keyed by the client key derived from proxy headers.
func RateLimitMiddleware(limiter *ratelimit.Limiter, namespace string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(namespace, ClientKey(c)) {
			c.Header("Retry-After", "60")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}

// GlobalRateLimitMiddleware applies a token-bucket limit per client across
// all routes, as a backstop in front of the per-endpoint windows. The
// per-key limiter store is owned by the returned middleware, not shared
// package state, so separate routers get separate buckets.
func GlobalRateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	var store sync.Map // map[string]*rate.Limiter
	getLimiter := func(key string) *rate.Limiter {
		if v, ok := store.Load(key); ok {
			return v.(*rate.Limiter)
		}
		lim := rate.NewLimiter(rate.Limit(rps), burst)
		actual, _ := store.LoadOrStore(key, lim)
		return actual.(*rate.Limiter)
	}
	return func(c *gin.Context) {
		if !getLimiter(ClientKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("global").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("global").Inc()
		c.Next()
	}
}
