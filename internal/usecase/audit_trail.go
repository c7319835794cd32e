package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/V4T54L/docqa/internal/adapter/pii"
	"github.com/V4T54L/docqa/internal/domain"
)

// AuditTrailUseCase enriches, redacts and buffers ask audit events.
type AuditTrailUseCase struct {
	repo     domain.AuditRepository
	redactor *pii.Redactor
	logger   *slog.Logger
}

// NewAuditTrailUseCase creates a new AuditTrailUseCase.
func NewAuditTrailUseCase(repo domain.AuditRepository, redactor *pii.Redactor, logger *slog.Logger) *AuditTrailUseCase {
	return &AuditTrailUseCase{
		repo:     repo,
		redactor: redactor,
		logger:   logger.With("component", "audit_trail"),
	}
}

// Record stamps the event and hands it to the buffer.
func (uc *AuditTrailUseCase) Record(ctx context.Context, event *domain.AuditEvent) error {
	event.ReceivedAt = time.Now().UTC()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if uc.redactor != nil {
		uc.redactor.Redact(event)
	}

	if err := uc.repo.BufferEvent(ctx, *event); err != nil {
		uc.logger.Error("failed to buffer audit event", "error", err, "event_id", event.ID)
		return err
	}
	return nil
}
