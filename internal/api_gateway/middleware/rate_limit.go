package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// sweepThreshold bounds how many client limiters are kept before idle ones are dropped
const sweepThreshold = 10_000

// ClientLimiter throttles requests per client IP with a token bucket per client
type ClientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewClientLimiter allows perSecond requests per client with bursts of up to burst
func NewClientLimiter(perSecond float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow reports whether the client may proceed now and consumes a token if so
func (l *ClientLimiter) Allow(client string) bool {
	return l.get(client).Allow()
}

func (l *ClientLimiter) get(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters[client]; ok {
		return limiter
	}
	if len(l.limiters) >= sweepThreshold {
		l.sweep()
	}

	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters[client] = limiter
	return limiter
}

// sweep drops limiters whose bucket has refilled, which are indistinguishable from new ones
func (l *ClientLimiter) sweep() {
	for client, limiter := range l.limiters {
		if limiter.Tokens() >= float64(l.burst) {
			delete(l.limiters, client)
		}
	}
}

// Tracked returns the number of clients currently holding a limiter
func (l *ClientLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware rejects over-limit requests with 429 and a Retry-After hint
func (l *ClientLimiter) Middleware() gin.HandlerFunc {
	retryAfter := "1"
	if l.limit > 0 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / float64(l.limit))))
	}

	return func(c *gin.Context) {
		if l.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"code":    "TOO_MANY_REQUESTS",
				"message": "Too many attempts, slow down",
			},
		})
	}
}
