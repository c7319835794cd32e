package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/V4T54L/docqa/internal/tenant"
	"github.com/V4T54L/docqa/internal/usecase"
)

// AdminHandler handles HTTP requests for tenant reloads and audit stream
// administration.
type AdminHandler struct {
	streams *usecase.AdminStreamUseCase
	reload  *usecase.ReloadUseCase
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler. streams may be nil when no
// audit stream is configured.
func NewAdminHandler(streams *usecase.AdminStreamUseCase, reload *usecase.ReloadUseCase, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{streams: streams, reload: reload, logger: logger.With("component", "admin_handler")}
}

// HealthCheck is a simple health check endpoint.
func (h *AdminHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// ReloadTenant handles requests to re-read one tenant's documents.
// POST /admin/tenants/{tenantID}/reload
func (h *AdminHandler) ReloadTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenantID")

	count, err := h.reload.ReloadTenant(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			RespondError(w, h.logger, http.StatusNotFound, CodeNotFound, "unknown tenant")
			return
		}
		h.logger.Error("failed to reload tenant", "tenant_id", tenantID, "error", err)
		RespondError(w, h.logger, http.StatusInternalServerError, CodeInternal, "Internal Server Error")
		return
	}

	h.logger.Info("reloaded tenant", "tenant_id", tenantID, "count", count)
	RespondJSON(w, h.logger, http.StatusOK, map[string]any{"tenant_id": tenantID, "document_count": count})
}

// ReloadAll handles requests to re-read every tenant.
// POST /admin/reload
func (h *AdminHandler) ReloadAll(w http.ResponseWriter, r *http.Request) {
	counts, err := h.reload.ReloadAll(r.Context())
	if err != nil {
		h.logger.Error("failed to reload tenants", "error", err)
		RespondError(w, h.logger, http.StatusInternalServerError, CodeInternal, "Internal Server Error")
		return
	}
	RespondJSON(w, h.logger, http.StatusOK, map[string]any{"tenants": counts})
}

// GetStreamSummary handles requests to describe an audit stream.
// GET /admin/streams/{streamName}?recent=N
func (h *AdminHandler) GetStreamSummary(w http.ResponseWriter, r *http.Request) {
	streamName := r.PathValue("streamName")

	var recent int64
	if raw := r.URL.Query().Get("recent"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			RespondError(w, h.logger, http.StatusBadRequest, CodeBadRequest, "recent must be a positive integer")
			return
		}
		recent = n
	}

	summary, err := h.streams.GetStreamSummary(r.Context(), streamName, recent)
	if err != nil {
		h.streamError(w, "failed to summarize audit stream", err)
		return
	}
	RespondJSON(w, h.logger, http.StatusOK, summary)
}

// GetGroupInfo handles requests to get consumer group info.
// GET /admin/streams/{streamName}/groups
func (h *AdminHandler) GetGroupInfo(w http.ResponseWriter, r *http.Request) {
	streamName := r.PathValue("streamName")

	groups, err := h.streams.GetGroupInfo(r.Context(), streamName)
	if err != nil {
		h.streamError(w, "failed to get group info", err)
		return
	}
	RespondJSON(w, h.logger, http.StatusOK, groups)
}

// GetConsumerInfo handles requests to get consumer info for a group.
// GET /admin/streams/{streamName}/groups/{groupName}/consumers
func (h *AdminHandler) GetConsumerInfo(w http.ResponseWriter, r *http.Request) {
	streamName := r.PathValue("streamName")
	groupName := r.PathValue("groupName")

	consumers, err := h.streams.GetConsumerInfo(r.Context(), streamName, groupName)
	if err != nil {
		h.streamError(w, "failed to get consumer info", err)
		return
	}
	RespondJSON(w, h.logger, http.StatusOK, consumers)
}

// GetPendingSummary handles requests to get a summary of pending messages.
// GET /admin/streams/{streamName}/groups/{groupName}/pending
func (h *AdminHandler) GetPendingSummary(w http.ResponseWriter, r *http.Request) {
	streamName := r.PathValue("streamName")
	groupName := r.PathValue("groupName")

	summary, err := h.streams.GetPendingSummary(r.Context(), streamName, groupName)
	if err != nil {
		h.streamError(w, "failed to get pending summary", err)
		return
	}
	RespondJSON(w, h.logger, http.StatusOK, summary)
}

// TrimStream handles requests to trim a stream.
// POST /admin/streams/{streamName}/trim
func (h *AdminHandler) TrimStream(w http.ResponseWriter, r *http.Request) {
	streamName := r.PathValue("streamName")

	var payload struct {
		MaxLen int64 `json:"maxlen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondError(w, h.logger, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}
	if payload.MaxLen <= 0 {
		RespondError(w, h.logger, http.StatusBadRequest, CodeBadRequest, "maxlen must be a positive integer")
		return
	}

	trimmedCount, err := h.streams.TrimStream(r.Context(), streamName, payload.MaxLen)
	if err != nil {
		h.streamError(w, "failed to trim stream", err)
		return
	}
	RespondJSON(w, h.logger, http.StatusOK, map[string]int64{"trimmed": trimmedCount})
}

func (h *AdminHandler) streamError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, usecase.ErrUnknownStream) {
		RespondError(w, h.logger, http.StatusNotFound, CodeNotFound, err.Error())
		return
	}
	h.logger.Error(msg, "error", err)
	RespondError(w, h.logger, http.StatusInternalServerError, CodeInternal, "Internal Server Error")
}
