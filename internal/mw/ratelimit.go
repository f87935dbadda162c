package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterIdle is how long a client's bucket survives without requests.
const limiterIdle = 10 * time.Minute

// ClientLimiters hands out one token bucket per client IP. Buckets of idle
// clients expire so the set stays bounded.
type ClientLimiters struct {
	mu      sync.Mutex
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
}

func NewClientLimiters(limit rate.Limit, burst int) *ClientLimiters {
	return &ClientLimiters{
		buckets: cache.New(limiterIdle, limiterIdle),
		limit:   limit,
		burst:   burst,
	}
}

// For returns the bucket of ip and refreshes its expiry.
func (l *ClientLimiters) For(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, ok := l.buckets.Get(ip)
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
	}
	l.buckets.SetDefault(ip, bucket)
	return bucket.(*rate.Limiter)
}

// RateLimiter rejects clients that exceed limit requests per second with 429.
func RateLimiter(limit rate.Limit, burst int) gin.HandlerFunc {
	limiters := NewClientLimiters(limit, burst)
	return func(c *gin.Context) {
		if !limiters.For(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
