package handler

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/docqa/internal/tenant"
)

// DocumentLister is the read side of the document store used by the tenant
// endpoints.
type DocumentLister interface {
	Titles(tenantID string) []string
	DocumentCount(tenantID string) int
}

// TenantInfo is the body of GET /tenant/info.
type TenantInfo struct {
	TenantID      string `json:"tenant_id"`
	DisplayName   string `json:"display_name"`
	DocumentCount int    `json:"document_count"`
}

// TenantHandler serves the authenticated tenant's own metadata.
type TenantHandler struct {
	docs   DocumentLister
	logger *slog.Logger
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(docs DocumentLister, logger *slog.Logger) *TenantHandler {
	return &TenantHandler{docs: docs, logger: logger.With("component", "tenant_handler")}
}

// ListDocuments handles GET /documents.
func (h *TenantHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	tc, ok := h.tenant(w, r)
	if !ok {
		return
	}
	titles := h.docs.Titles(tc.TenantID())
	if titles == nil {
		titles = []string{}
	}
	h.logger.Info("listed documents", "tenant_id", tc.TenantID(), "count", len(titles))
	RespondJSON(w, h.logger, http.StatusOK, titles)
}

// Info handles GET /tenant/info.
func (h *TenantHandler) Info(w http.ResponseWriter, r *http.Request) {
	tc, ok := h.tenant(w, r)
	if !ok {
		return
	}
	RespondJSON(w, h.logger, http.StatusOK, TenantInfo{
		TenantID:      tc.TenantID(),
		DisplayName:   tc.DisplayName(),
		DocumentCount: h.docs.DocumentCount(tc.TenantID()),
	})
}

func (h *TenantHandler) tenant(w http.ResponseWriter, r *http.Request) (tenant.Context, bool) {
	tc, err := tenant.FromContext(r.Context())
	if err != nil {
		h.logger.Error("request reached without tenant context", "path", r.URL.Path)
		RespondError(w, h.logger, http.StatusInternalServerError, CodeInternal, "Tenant context not found - middleware configuration error")
		return tenant.Context{}, false
	}
	return tc, true
}
