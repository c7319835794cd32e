package domain

import (
	"context"
	"time"
)

// AuditRepository abstracts buffering and sinking of audit events
// (e.g., Redis Streams as the buffer, PostgreSQL as the sink).
type AuditRepository interface {
	// BufferEvent adds a single audit event to the durable buffer.
	BufferEvent(ctx context.Context, event AuditEvent) error

	// ReadBatch reads a batch of audit events from the buffer for a specific consumer.
	ReadBatch(ctx context.Context, group, consumer string, count int) ([]AuditEvent, error)

	// WriteBatch writes a batch of audit events to the final structured sink.
	WriteBatch(ctx context.Context, events []AuditEvent) error

	// Acknowledge marks a set of audit events as processed in the buffer.
	Acknowledge(ctx context.Context, group string, messageIDs ...string) error

	// MoveToDLQ parks events that could not be sunk.
	MoveToDLQ(ctx context.Context, events []AuditEvent) error
}

// WALRepository defines the interface for the Write-Ahead Log failover mechanism.
type WALRepository interface {
	// Write appends an audit event to the local WAL file.
	Write(ctx context.Context, event AuditEvent) error

	// Replay reads events from the WAL and sends them to a handler function.
	// The handler is responsible for re-buffering the event (e.g., to Redis).
	Replay(ctx context.Context, handler func(event AuditEvent) error) error

	// Truncate removes WAL segments that have been successfully replayed.
	Truncate(ctx context.Context) error
}

// AnswerCache stores answers under tenant-scoped keys.
type AnswerCache interface {
	Get(ctx context.Context, key string) (Answer, bool, error)
	Set(ctx context.Context, key string, answer Answer, ttl time.Duration) error
}

// ReloadPublisher announces a tenant reload to other replicas.
type ReloadPublisher interface {
	PublishReload(ctx context.Context, tenantID string) error
}

// StreamAdminRepository exposes operational views over the audit stream.
type StreamAdminRepository interface {
	GetStreamSummary(ctx context.Context, stream string, recent int64) (*AuditStreamSummary, error)
	GetGroupInfo(ctx context.Context, stream string) ([]ConsumerGroupInfo, error)
	GetConsumerInfo(ctx context.Context, stream, group string) ([]ConsumerInfo, error)
	GetPendingSummary(ctx context.Context, stream, group string) (*PendingMessageSummary, error)
	TrimStream(ctx context.Context, stream string, maxLen int64) (int64, error)
}
