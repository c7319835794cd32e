package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/V4T54L/docqa/internal/domain"
	"github.com/V4T54L/docqa/internal/tenant"
	"github.com/V4T54L/docqa/internal/usecase"
)

// Asker answers a question within a tenant scope.
type Asker interface {
	Ask(ctx context.Context, tc tenant.Context, question string) (domain.Answer, error)
}

type askRequest struct {
	Question *string `json:"question"`
}

// AskResponse is the body of a successful POST /ask.
type AskResponse struct {
	Answer string  `json:"answer"`
	Source *string `json:"source"`
	Tenant string  `json:"tenant"`
}

// AskHandler serves POST /ask.
type AskHandler struct {
	uc           Asker
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(uc Asker, logger *slog.Logger, maxBodyBytes int64) *AskHandler {
	return &AskHandler{
		uc:           uc,
		logger:       logger.With("component", "ask_handler"),
		maxBodyBytes: maxBodyBytes,
	}
}

func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The tenant comes from the authenticator, never from the body.
	tc, err := tenant.FromContext(r.Context())
	if err != nil {
		h.logger.Error("ask reached without tenant context", "path", r.URL.Path)
		RespondError(w, h.logger, http.StatusInternalServerError, CodeInternal, "Tenant context not found - middleware configuration error")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &maxErr):
			RespondError(w, h.logger, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large")
		case errors.As(err, &typeErr):
			RespondError(w, h.logger, http.StatusUnprocessableEntity, CodeValidation, "question must be a string")
		default:
			RespondError(w, h.logger, http.StatusBadRequest, CodeBadRequest, "Request body must be a JSON object")
		}
		return
	}
	if req.Question == nil {
		RespondError(w, h.logger, http.StatusUnprocessableEntity, CodeValidation, "question field is required")
		return
	}

	h.logger.Info("processing question", "tenant_id", tc.TenantID())
	answer, err := h.uc.Ask(r.Context(), tc, *req.Question)
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrQuestionLength):
		RespondError(w, h.logger, http.StatusUnprocessableEntity, CodeValidation, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("question timed out", "tenant_id", tc.TenantID())
		RespondError(w, h.logger, http.StatusGatewayTimeout, CodeTimeout, "Request timed out")
		return
	default:
		h.logger.Error("failed to answer question", "tenant_id", tc.TenantID(), "error", err)
		RespondError(w, h.logger, http.StatusInternalServerError, CodeInternal, "Internal Server Error")
		return
	}

	resp := AskResponse{Answer: answer.Text, Tenant: tc.DisplayName()}
	if answer.Found() {
		source := answer.Source
		resp.Source = &source
	}
	RespondJSON(w, h.logger, http.StatusOK, resp)
}
