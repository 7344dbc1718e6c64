package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// idleBucketTTL is how long a client's bucket survives without requests.
const idleBucketTTL = 10 * time.Minute

// RateLimiter is a per-client token bucket.
type RateLimiter struct {
	tokens     map[string]float64
	lastRefill map[string]time.Time
	mu         sync.Mutex
	rate       float64 // tokens per second
	bucketSize float64 // maximum tokens
	lastPrune  time.Time
	now        func() time.Time
}

func NewRateLimiter(rate float64, bucketSize float64) *RateLimiter {
	return &RateLimiter{
		tokens:     make(map[string]float64),
		lastRefill: make(map[string]time.Time),
		rate:       rate,
		bucketSize: bucketSize,
		now:        time.Now,
	}
}

// Allow takes one token from key's bucket, reporting whether one was left.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)

	// Initialize if first request
	if _, exists := rl.lastRefill[key]; !exists {
		rl.tokens[key] = rl.bucketSize
		rl.lastRefill[key] = now
	}

	// Refill tokens based on time elapsed
	elapsed := now.Sub(rl.lastRefill[key])
	rl.tokens[key] = min(rl.bucketSize, rl.tokens[key]+elapsed.Seconds()*rl.rate)
	rl.lastRefill[key] = now

	if rl.tokens[key] < 1 {
		return false
	}
	rl.tokens[key]--
	return true
}

func (rl *RateLimiter) prune(now time.Time) {
	if now.Sub(rl.lastPrune) < idleBucketTTL {
		return
	}
	rl.lastPrune = now
	for key, last := range rl.lastRefill {
		if now.Sub(last) > idleBucketTTL {
			delete(rl.lastRefill, key)
			delete(rl.tokens, key)
		}
	}
}

// RateLimit limits requests per client IP.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || rl.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "Rate limit exceeded. Please try again later.",
			"rateLimited": true,
		})
	}
}
