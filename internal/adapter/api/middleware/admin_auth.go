package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/V4T54L/docqa/internal/adapter/api/handler"
	"github.com/V4T54L/docqa/internal/pkg/token"
)

// AdminAuth requires a bearer token signed with secret. An empty secret
// leaves the wrapped routes open.
func AdminAuth(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("component", "admin_auth_middleware")
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				handler.RespondError(w, logger, http.StatusUnauthorized, handler.CodeUnauthorized, "Missing bearer token")
				return
			}
			claims, err := token.Validate(raw, secret)
			if err != nil {
				logger.Warn("rejected admin token", "remote_addr", r.RemoteAddr, "error", err)
				handler.RespondError(w, logger, http.StatusUnauthorized, handler.CodeUnauthorized, "Invalid bearer token")
				return
			}
			logger.Info("admin request", "subject", claims.Subject, "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}
