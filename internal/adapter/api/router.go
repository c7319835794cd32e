package api

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/docqa/internal/adapter/api/handler"
	"github.com/V4T54L/docqa/internal/adapter/api/middleware"
	"github.com/V4T54L/docqa/internal/adapter/metrics"
	"github.com/V4T54L/docqa/internal/pkg/config"
	"github.com/V4T54L/docqa/internal/store"
	"github.com/V4T54L/docqa/internal/tenant"
	"github.com/V4T54L/docqa/internal/usecase"
)

// NewRouter creates and configures the public HTTP router. Every request
// passes through logging, authentication, the per-tenant limiter and the
// request deadline, in that order.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	m *metrics.Metrics,
	registry *tenant.Registry,
	docs *store.DocumentStore,
	askUseCase *usecase.AskUseCase,
) http.Handler {
	mux := http.NewServeMux()

	askHandler := handler.NewAskHandler(askUseCase, logger, cfg.MaxRequestBytes)
	tenantHandler := handler.NewTenantHandler(docs, logger)
	healthHandler := handler.NewHealthHandler(docs, logger)

	// Routes
	mux.Handle("POST /ask", askHandler)
	mux.HandleFunc("GET /documents", tenantHandler.ListDocuments)
	mux.HandleFunc("GET /tenant/info", tenantHandler.Info)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /{$}", healthHandler.Root)

	var h http.Handler = mux
	h = middleware.Timeout(cfg.RequestTimeout)(h)
	h = middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger, m)(h)
	h = middleware.Auth(registry, cfg.APIKeyHeader, cfg.AuthExemptPaths, logger, m)(h)
	h = middleware.Logging(logger)(h)
	return h
}
