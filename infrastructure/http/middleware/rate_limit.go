package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/costra/costra/infrastructure/http/response"
	"github.com/costra/costra/infrastructure/service/logger"
	"github.com/costra/costra/infrastructure/service/ratelimit"
)

type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	logger  logger.Logger
	limit   int
	window  time.Duration
}

func NewRateLimitMiddleware(limiter ratelimit.Limiter, log logger.Logger, limit int, window time.Duration) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, logger: log, limit: limit, window: window}
}

// RateLimit caps requests per client IP inside a fixed window. Limiter
// failures let the request through; availability wins over strictness here.
func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if m.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := getClientIP(r)
		key := fmt.Sprintf("ip:%s", clientIP)

		allowed, err := m.limiter.Allow(ctx, key, m.limit, m.window)
		if err != nil {
			m.logger.Error(ctx, "Rate limit check failed", err, map[string]interface{}{
				"ip":   clientIP,
				"path": r.URL.Path,
			})
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			response.Error(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func getClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
