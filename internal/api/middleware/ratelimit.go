package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"tweetflow/pkg/logger"
	"tweetflow/pkg/metrics"
)

// RateLimiter is a process-wide token bucket. Health and metrics probes bypass it.
type RateLimiter struct {
	limiter *rate.Limiter
	logger  logger.Logger
}

func NewRateLimiter(rps float64, burst int, logger logger.Logger) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		if !l.limiter.Allow() {
			metrics.RecordRateLimited()
			l.logger.WarnContext(r.Context(), "İstek limiti aşıldı", map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "too many requests",
				"kind":  "rate_limited",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chain applies middlewares so the first one listed is the outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
