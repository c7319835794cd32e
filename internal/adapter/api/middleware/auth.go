package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/V4T54L/docqa/internal/adapter/api/handler"
	"github.com/V4T54L/docqa/internal/adapter/metrics"
	"github.com/V4T54L/docqa/internal/tenant"
)

// Resolver maps a credential to its tenant.
type Resolver interface {
	Resolve(credential string) (tenant.Record, error)
}

// Auth is a middleware factory that returns a new authentication middleware.
// It reads the credential from header only and binds the resolved tenant to
// the request context. Paths in exemptPaths are dispatched without a tenant.
func Auth(resolver Resolver, header string, exemptPaths []string, logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[p] = struct{}{}
	}
	logger = logger.With("component", "auth_middleware")

	reject := func(w http.ResponseWriter, reason, detail string) {
		m.AuthFailures.WithLabelValues(reason).Inc()
		handler.RespondError(w, logger, http.StatusUnauthorized, handler.CodeUnauthorized, detail)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exempt[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get(header)
			if apiKey == "" {
				logger.Warn("API key missing from request", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				reject(w, "missing", "Missing "+header+" header")
				return
			}

			rec, err := resolver.Resolve(apiKey)
			if err != nil {
				if !errors.Is(err, tenant.ErrNotFound) {
					logger.Error("failed to resolve API key", "error", err)
					handler.RespondError(w, logger, http.StatusInternalServerError, handler.CodeInternal, "Internal Server Error")
					return
				}
				logger.Warn("invalid API key provided", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				reject(w, "invalid", "Invalid API key")
				return
			}

			logger.Debug("authenticated request", "tenant_id", rec.ID, "path", r.URL.Path)
			ctx := tenant.WithContext(r.Context(), tenant.NewContext(rec))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
