package middleware

import (
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/V4T54L/docqa/internal/adapter/api/handler"
	"github.com/V4T54L/docqa/internal/adapter/metrics"
	"github.com/V4T54L/docqa/internal/tenant"
)

// RateLimit is a middleware factory that gives every tenant its own token
// bucket. It must run after Auth; requests without a tenant pass through.
// A non-positive rps disables limiting.
func RateLimit(rps float64, burst int, logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	var limiters sync.Map // tenant ID -> *rate.Limiter
	logger = logger.With("component", "rate_limit_middleware")

	limiterFor := func(tenantID string) *rate.Limiter {
		if l, ok := limiters.Load(tenantID); ok {
			return l.(*rate.Limiter)
		}
		l, _ := limiters.LoadOrStore(tenantID, rate.NewLimiter(rate.Limit(rps), burst))
		return l.(*rate.Limiter)
	}

	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, err := tenant.FromContext(r.Context())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if !limiterFor(tc.TenantID()).Allow() {
				m.RateLimited.WithLabelValues(tc.TenantID()).Inc()
				logger.Warn("rate limit exceeded", "tenant_id", tc.TenantID(), "path", r.URL.Path)
				handler.RespondError(w, logger, http.StatusTooManyRequests, handler.CodeRateLimited, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
