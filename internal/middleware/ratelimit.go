package middleware

import (
	"net/http"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// IPRateLimiter hands out one token bucket per client IP. Idle buckets
// expire from the cache.
type IPRateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *cache.Cache
}

// NewIPRateLimiter allows perMinute requests per IP with the given burst.
func NewIPRateLimiter(perMinute, burst int) *IPRateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		buckets: cache.New(10*time.Minute, 20*time.Minute),
	}
}

// Allow consumes a token for ip.
func (l *IPRateLimiter) Allow(ip string) bool {
	if v, ok := l.buckets.Get(ip); ok {
		lim := v.(*rate.Limiter)
		l.buckets.SetDefault(ip, lim)
		return lim.Allow()
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	// a concurrent caller may have won the race; use its bucket then
	if err := l.buckets.Add(ip, lim, cache.DefaultExpiration); err != nil {
		if v, ok := l.buckets.Get(ip); ok {
			lim = v.(*rate.Limiter)
		}
	}
	return lim.Allow()
}

// RateLimit rejects callers that exceed the limiter with 429.
func RateLimit(l *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			util.Abort(c, http.StatusTooManyRequests, util.CodeTooMany, "too many requests, try again later")
			return
		}
		c.Next()
	}
}
