package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/V4T54L/docqa/internal/domain"
)

const (
	defaultBatchSize    = 500
	defaultRetryCount   = 3
	defaultRetryBackoff = 1 * time.Second
)

// ProcessAuditUseCase moves audit events from the stream buffer into the
// durable sink.
type ProcessAuditUseCase struct {
	bufferRepo   domain.AuditRepository
	sinkRepo     domain.AuditRepository
	logger       *slog.Logger
	group        string
	consumer     string
	batchSize    int
	retries      int
	retryBackoff time.Duration
}

// NewProcessAuditUseCase creates a new use case for processing audit events.
// Non-positive retries and backoff fall back to defaults.
func NewProcessAuditUseCase(bufferRepo, sinkRepo domain.AuditRepository, logger *slog.Logger, group, consumer string, retries int, retryBackoff time.Duration) *ProcessAuditUseCase {
	if retries <= 0 {
		retries = defaultRetryCount
	}
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}
	return &ProcessAuditUseCase{
		bufferRepo:   bufferRepo,
		sinkRepo:     sinkRepo,
		logger:       logger.With("component", "audit_processor"),
		group:        group,
		consumer:     consumer,
		batchSize:    defaultBatchSize,
		retries:      retries,
		retryBackoff: retryBackoff,
	}
}

// SetBatchSize overrides how many events a single ProcessBatch reads.
func (uc *ProcessAuditUseCase) SetBatchSize(n int) {
	if n > 0 {
		uc.batchSize = n
	}
}

// ProcessBatch reads a batch, writes it to the sink and acknowledges it. A
// batch the sink keeps rejecting is parked in the DLQ and still acknowledged.
func (uc *ProcessAuditUseCase) ProcessBatch(ctx context.Context) (int, error) {
	events, err := uc.bufferRepo.ReadBatch(ctx, uc.group, uc.consumer, uc.batchSize)
	if err != nil {
		uc.logger.Error("failed to read audit batch from buffer", "error", err)
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	uc.logger.Debug("read batch of audit events", "count", len(events))

	writeErr := uc.writeWithRetry(ctx, events)
	if writeErr != nil {
		uc.logger.Error("failed to write audit batch after retries, moving to DLQ", "error", writeErr, "count", len(events))
		if err := uc.bufferRepo.MoveToDLQ(ctx, events); err != nil {
			// Leave unacknowledged so the batch is read again.
			uc.logger.Error("failed to move audit batch to DLQ", "error", err)
			return 0, err
		}
	}

	messageIDs := make([]string, len(events))
	for i, event := range events {
		messageIDs[i] = event.StreamMessageID
	}
	if err := uc.bufferRepo.Acknowledge(ctx, uc.group, messageIDs...); err != nil {
		// The sink upserts on event_id, so reprocessing is harmless.
		uc.logger.Error("failed to acknowledge audit events", "error", err)
		return 0, err
	}

	if writeErr != nil {
		return 0, writeErr
	}
	uc.logger.Info("processed audit batch", "count", len(events))
	return len(events), nil
}

func (uc *ProcessAuditUseCase) writeWithRetry(ctx context.Context, events []domain.AuditEvent) error {
	var lastErr error
	for i := 0; i < uc.retries; i++ {
		err := uc.sinkRepo.WriteBatch(ctx, events)
		if err == nil {
			return nil
		}
		lastErr = err
		uc.logger.Warn("failed to write audit batch, retrying", "attempt", i+1, "error", err)
		if i == uc.retries-1 {
			break
		}
		select {
		case <-time.After(uc.retryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
