package api

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/V4T54L/docqa/internal/adapter/api/handler"
	"github.com/V4T54L/docqa/internal/adapter/api/middleware"
	"github.com/V4T54L/docqa/internal/usecase"
)

// NewAdminRouter creates and configures the HTTP router for admin operations.
// Routes under /admin/ require a bearer token when adminSecret is set. Stream
// routes are only mounted when streamUseCase is non-nil.
func NewAdminRouter(
	reloadUseCase *usecase.ReloadUseCase,
	streamUseCase *usecase.AdminStreamUseCase,
	gatherer prometheus.Gatherer,
	adminSecret string,
	logger *slog.Logger,
) http.Handler {
	adminHandler := handler.NewAdminHandler(streamUseCase, reloadUseCase, logger)

	admin := http.NewServeMux()

	// Tenant reloads
	admin.HandleFunc("POST /admin/tenants/{tenantID}/reload", adminHandler.ReloadTenant)
	admin.HandleFunc("POST /admin/reload", adminHandler.ReloadAll)

	// Audit stream
	if streamUseCase != nil {
		admin.HandleFunc("GET /admin/streams/{streamName}", adminHandler.GetStreamSummary)
		admin.HandleFunc("GET /admin/streams/{streamName}/groups", adminHandler.GetGroupInfo)
		admin.HandleFunc("GET /admin/streams/{streamName}/groups/{groupName}/consumers", adminHandler.GetConsumerInfo)
		admin.HandleFunc("GET /admin/streams/{streamName}/groups/{groupName}/pending", adminHandler.GetPendingSummary)
		admin.HandleFunc("POST /admin/streams/{streamName}/trim", adminHandler.TrimStream)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", adminHandler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/admin/", middleware.AdminAuth(adminSecret, logger)(admin))

	return middleware.Logging(logger)(mux)
}
