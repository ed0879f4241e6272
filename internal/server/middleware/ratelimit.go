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
// (the auth routes). Relies on chi's RealIP middleware having normalized
// r.RemoteAddr. Stale entries are cleaned up every 10 minutes.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiterFor := newLimiterTable(ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiterFor(r.RemoteAddr).Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByTenant applies per-tenant rate limiting on authenticated
// routes. Requests without a tenant context pass through; Auth has already
// rejected them or the route is exempt.
func RateLimitByTenant(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiterFor := newLimiterTable(ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, ok := TenantContextFrom(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if !limiterFor(tc.TenantID).Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// newLimiterTable returns a keyed limiter lookup with background cleanup of
// entries idle for 30 minutes.
func newLimiterTable(ctx context.Context, requestsPerSecond float64, burst int) func(string) *rate.Limiter {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*keyedLimiter)
	)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				cutoff := time.Now().Add(-30 * time.Minute)
				for key, kl := range limiters {
					if kl.lastAccess.Before(cutoff) {
						delete(limiters, key)
					}
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		kl, ok := limiters[key]
		if !ok {
			kl = &keyedLimiter{
				limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
				lastAccess: time.Now(),
			}
			limiters[key] = kl
		} else {
			kl.lastAccess = time.Now()
		}
		return kl.limiter
	}
}
