package middleware

import (
	"net/http"
	"sync"
	"time"
)

const (
	evictInterval = 5 * time.Minute
	evictIdleFor  = 10 * time.Minute
)

// bucket is a token bucket for one client IP.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimiter applies a per-IP token bucket. It guards the public
// self-registration endpoints, which carry no auth.
type RateLimiter struct {
	mu      sync.Mutex
	perIP   map[string]*bucket
	rate    float64 // refill, tokens per second
	burst   float64 // bucket capacity
	nowFunc func() time.Time
}

// NewRateLimiter creates a limiter allowing rate requests/sec with the given
// burst size per IP.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		perIP:   make(map[string]*bucket),
		rate:    rate,
		burst:   float64(burst),
		nowFunc: time.Now,
	}
	go rl.evictLoop()
	return rl
}

// Allow reports whether a request from ip fits the budget, spending one
// token when it does.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFunc()
	b, ok := rl.perIP[ip]
	if !ok {
		b = &bucket{tokens: rl.burst, lastRefill: now}
		rl.perIP[ip] = b
	} else {
		b.tokens += now.Sub(b.lastRefill).Seconds() * rl.rate
		if b.tokens > rl.burst {
			b.tokens = rl.burst
		}
		b.lastRefill = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictLoop drops buckets idle long enough to have fully refilled, keeping
// the map bounded.
func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := rl.nowFunc().Add(-evictIdleFor)
		rl.mu.Lock()
		for ip, b := range rl.perIP {
			if b.lastRefill.Before(cutoff) {
				delete(rl.perIP, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit returns middleware rejecting requests over the configured rate
// with 429 Too Many Requests.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prefer X-Real-Ip set by chi's RealIP middleware.
			ip := r.Header.Get("X-Real-Ip")
			if ip == "" {
				ip = r.RemoteAddr
			}
			if !limiter.Allow(ip) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
