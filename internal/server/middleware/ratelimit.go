package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimitByIP applies per-IP rate limiting for unauthenticated endpoints
// (the OAuth install routes). Uses chi's RealIP middleware value via
// r.RemoteAddr. Stale entries are cleaned up every 10 minutes.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiters := newLimiterTable(ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.allow(r.RemoteAddr) {
				http.Error(w, `{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByShop applies per-shop rate limiting on the authenticated app
// routes. Requests without a session in context are passed through; the
// auth gate ahead of this middleware guarantees there is one.
func RateLimitByShop(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiters := newLimiterTable(ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if !limiters.allow(sess.Shop) {
				http.Error(w, `{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limiterTable keeps one token bucket per key with periodic cleanup to
// prevent unbounded memory growth.
type limiterTable struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	rps      float64
	burst    int
}

func newLimiterTable(ctx context.Context, rps float64, burst int) *limiterTable {
	t := &limiterTable{
		limiters: make(map[string]*keyedLimiter),
		rps:      rps,
		burst:    burst,
	}

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.mu.Lock()
				cutoff := time.Now().Add(-30 * time.Minute)
				for key, kl := range t.limiters {
					if kl.lastAccess.Before(cutoff) {
						delete(t.limiters, key)
					}
				}
				t.mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return t
}

func (t *limiterTable) allow(key string) bool {
	t.mu.Lock()
	kl, ok := t.limiters[key]
	if !ok {
		kl = &keyedLimiter{
			limiter:    rate.NewLimiter(rate.Limit(t.rps), t.burst),
			lastAccess: time.Now(),
		}
		t.limiters[key] = kl
	} else {
		kl.lastAccess = time.Now()
	}
	t.mu.Unlock()

	return kl.limiter.Allow()
}
