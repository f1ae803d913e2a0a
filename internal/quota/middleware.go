package quota

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/termfolio/termfolio/internal/metrics"
	"github.com/termfolio/termfolio/internal/protocol"
)

// KeyFunc picks the bucket a request is charged to. Requests without a
// key pass unlimited.
type KeyFunc func(r *http.Request) (string, bool)

// Middleware answers 429 with Retry-After once a key runs out of tokens.
// A nil limiter lets everything through.
func Middleware(limiter *RateLimiter, keyOf KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := keyOf(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(key) {
				metrics.RecordRateLimitHit()
				w.Header().Set("Retry-After", strconv.Itoa(limiter.RetryAfter(key)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(protocol.ErrorResponse{
					Error: "rate limit exceeded",
					Code:  http.StatusTooManyRequests,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
