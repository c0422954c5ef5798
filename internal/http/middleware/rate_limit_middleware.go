package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/kenacbank/auth-service/internal/http/response"
)

const msgTooManyRequests = "Too many requests"

// RateLimiter is a per-client fixed window limiter. State is local to the
// process; a multi-instance deployment limits per instance.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	hits    map[string][]time.Time
	cleanup time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		hits:    make(map[string][]time.Time),
		cleanup: time.Now().Add(window),
	}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, resetAt := rl.allow(clientIPKey(r), time.Now())
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt.Unix()))
			if !allowed {
				retry := int(time.Until(resetAt).Round(time.Second).Seconds())
				if retry <= 0 {
					retry = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retry))
				response.Message(w, http.StatusTooManyRequests, msgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(key string, now time.Time) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.After(rl.cleanup) {
		cutoff := now.Add(-rl.window)
		for k, hits := range rl.hits {
			if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
				delete(rl.hits, k)
			}
		}
		rl.cleanup = now.Add(rl.window)
	}

	cutoff := now.Add(-rl.window)
	pruned := rl.hits[key][:0]
	for _, hit := range rl.hits[key] {
		if hit.After(cutoff) {
			pruned = append(pruned, hit)
		}
	}

	resetAt := now.Add(rl.window)
	if len(pruned) > 0 {
		resetAt = pruned[0].Add(rl.window)
	}
	if len(pruned) >= rl.limit {
		rl.hits[key] = pruned
		return false, 0, resetAt
	}
	pruned = append(pruned, now)
	rl.hits[key] = pruned
	return true, rl.limit - len(pruned), resetAt
}

func clientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
