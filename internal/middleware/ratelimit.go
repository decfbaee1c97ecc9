package middleware

import (
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/insectlab/bugradar/internal/ratelimit"
)

// RateLimit guards an expensive endpoint with a per-IP window. On Redis
// failure it fails open: losing chat throttling is better than losing chat.
func RateLimit(limiter *ratelimit.Limiter, name string, cfg ratelimit.LimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			decision, err := limiter.Check(r.Context(), name+":"+ip, cfg)
			if err != nil {
				log.Printf("[RateLimit] check failed for %s: %v", name, err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfter))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
