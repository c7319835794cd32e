package handler

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	serviceName        = "Multi-Tenant SaaS API"
	serviceVersion     = "1.0.0"
	serviceDescription = "Multi-tenant document Q&A system with strict data isolation"
)

// TenantCounter reports how many tenants have been loaded.
type TenantCounter interface {
	LoadedTenantCount() int
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	TenantsLoaded int    `json:"tenants_loaded"`
	Timestamp     string `json:"timestamp"`
}

// ServiceInfo is the body of GET /.
type ServiceInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Docs        string `json:"docs"`
	Health      string `json:"health"`
}

// HealthHandler serves the unauthenticated service endpoints.
type HealthHandler struct {
	tenants TenantCounter
	logger  *slog.Logger
	now     func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(tenants TenantCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{tenants: tenants, logger: logger, now: time.Now}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, h.logger, http.StatusOK, HealthResponse{
		Status:        "healthy",
		TenantsLoaded: h.tenants.LoadedTenantCount(),
		Timestamp:     h.now().UTC().Format(time.RFC3339),
	})
}

// Root handles GET /.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, h.logger, http.StatusOK, ServiceInfo{
		Name:        serviceName,
		Version:     serviceVersion,
		Description: serviceDescription,
		Docs:        "/docs",
		Health:      "/health",
	})
}
