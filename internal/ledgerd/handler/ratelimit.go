package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Throttle enforces per-client token-bucket limits. Appends are the
// write-heavy path, so each client IP gets its own bucket rather than
// sharing a global one.
type Throttle struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	lim     *rate.Limiter
	touched time.Time
}

// staleAfter is how long an idle client's bucket survives before eviction.
const staleAfter = 10 * time.Minute

// NewThrottle creates a Throttle allowing rps sustained requests per second
// with the given burst per client. A background sweep evicts idle buckets.
func NewThrottle(rps, burst int) *Throttle {
	t := &Throttle{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*bucket),
	}
	go t.sweep()
	return t
}

func (t *Throttle) sweep() {
	tick := time.NewTicker(staleAfter / 2)
	defer tick.Stop()
	for range tick.C {
		t.mu.Lock()
		for ip, b := range t.buckets {
			if time.Since(b.touched) > staleAfter {
				delete(t.buckets, ip)
			}
		}
		t.mu.Unlock()
	}
}

// Allow reports whether the given client may proceed right now.
func (t *Throttle) Allow(clientIP string) bool {
	t.mu.Lock()
	b, ok := t.buckets[clientIP]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(t.rps, t.burst)}
		t.buckets[clientIP] = b
	}
	b.touched = time.Now()
	t.mu.Unlock()

	return b.lim.Allow()
}

// Middleware rejects over-limit clients with 429 and a Retry-After hint.
func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, slow down",
			})
			return
		}
		c.Next()
	}
}
