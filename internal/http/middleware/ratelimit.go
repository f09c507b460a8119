package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"permitflow_backend/platform/httpkit"
	"permitflow_backend/platform/logger"
)

// IPRateLimiter applies a token-bucket limit per client IP. Buckets live for
// the process lifetime; the map is bounded by the number of distinct clients.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewIPRateLimiter creates a limiter allowing rps requests per second with the
// given burst per client IP.
func NewIPRateLimiter(rps float64, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  rate.Limit(rps),
		burst: burst,
		log:   log,
	}
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	if limiter, ok := i.limiters.Load(ip); ok {
		return limiter.(*rate.Limiter)
	}
	limiter, _ := i.limiters.LoadOrStore(ip, rate.NewLimiter(i.rate, i.burst))
	return limiter.(*rate.Limiter)
}

// RateLimit returns the gin middleware enforcing the per-IP limit.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !i.getLimiter(ip).Allow() {
			i.log.RateLimitExceeded(ip, c.Request.URL.Path)
			httpkit.Error(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
