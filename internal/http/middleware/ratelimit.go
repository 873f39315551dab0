package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/wolfman30/crm-assistant/internal/tenancy"
)

const (
	rateLimitSweepEvery = 5 * time.Minute
	rateLimitIdleAfter  = 10 * time.Minute
)

// RateLimiter is a token bucket per caller key.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      float64 // tokens per second
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewRateLimiter allows rate requests per second per key with the given burst.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
}

// Allow takes one token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.burst), lastTime: now}
		rl.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastTime).Seconds() * rl.rate
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.lastTime = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops idle buckets. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rateLimitSweepEvery {
		return
	}
	rl.lastSweep = now
	cutoff := now.Add(-rateLimitIdleAfter)
	for key, b := range rl.buckets {
		if b.lastTime.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// RateLimit rejects requests over the limit with 429. Authenticated callers are
// limited per email, everyone else per client IP.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(rateLimitKey(r)) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if caller, ok := tenancy.CallerFromContext(r.Context()); ok {
		return "caller:" + caller.Email
	}
	// chi's RealIP middleware has already rewritten RemoteAddr when proxied.
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return "ip:" + ip
}
