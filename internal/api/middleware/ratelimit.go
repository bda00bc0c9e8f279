package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ecoworks/transcribed/internal/api/response"
)

const defaultRequestsPerMinute = 60

// Counter is the increment-with-expiry primitive rate limiting needs.
// The Redis job store provides it; the memory backend runs without
// rate limiting.
type Counter interface {
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RateLimit provides a sliding-window rate limit keyed by caller identity.
type RateLimit struct {
	counter        Counter
	requestsPerMin int
}

func NewRateLimit(counter Counter, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{counter: counter, requestsPerMin: requestsPerMin}
}

// Limit applies rate limiting per user id, falling back to the remote
// address for anonymous callers. With no counter configured it is a no-op.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.counter == nil {
			next.ServeHTTP(w, r)
			return
		}

		subject := GetUserID(r)
		if subject == "anonymous" {
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				subject = host
			}
		}

		key := fmt.Sprintf("ratelimit:%s", subject)
		count, err := rl.counter.IncrWithExpiry(r.Context(), key, 60*time.Second)
		if err != nil {
			// On store error, allow the request (fail open).
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.requestsPerMin - int(count)
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(60*time.Second).Unix(), 10))

		if count > int64(rl.requestsPerMin) {
			w.Header().Set("Retry-After", "60")
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
