package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/docqa/internal/adapter/metrics"
	"github.com/V4T54L/docqa/internal/domain"
)

const payloadField = "payload"

var errSinkNotSupported = errors.New("redis audit repository is a buffer, not a sink")

// AuditRepository buffers audit events in a Redis stream. While Redis is
// unreachable, events go to the WAL and are replayed on recovery.
type AuditRepository struct {
	client    *redis.Client
	logger    *slog.Logger
	metrics   *metrics.Metrics
	wal       domain.WALRepository
	stream    string
	dlqStream string
	available atomic.Bool
}

// NewAuditRepository creates the stream-backed buffer and its consumer group.
// wal may be nil for consumers that never write.
func NewAuditRepository(client *redis.Client, logger *slog.Logger, m *metrics.Metrics, stream, dlqStream, group string, wal domain.WALRepository) *AuditRepository {
	repo := &AuditRepository{
		client:    client,
		logger:    logger.With("component", "redis_audit_repository"),
		metrics:   m,
		wal:       wal,
		stream:    stream,
		dlqStream: dlqStream,
	}
	repo.available.Store(true)

	if err := repo.ensureGroup(context.Background(), group); err != nil {
		repo.markUnavailable(err)
	}
	return repo
}

func (r *AuditRepository) ensureGroup(ctx context.Context, group string) error {
	if group == "" {
		return nil
	}
	err := r.client.XGroupCreateMkStream(ctx, r.stream, group, "0").Err()
	if err != nil && !isBusyGroupError(err) {
		return fmt.Errorf("failed to create consumer group %s: %w", group, err)
	}
	return nil
}

// StartHealthCheck pings Redis every interval and replays the WAL when the
// connection comes back. It returns when ctx is done.
func (r *AuditRepository) StartHealthCheck(ctx context.Context, interval time.Duration) {
	if r.wal == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.client.Ping(ctx).Err(); err != nil {
				r.markUnavailable(err)
				continue
			}
			if r.available.CompareAndSwap(false, true) {
				r.logger.Info("redis connection recovered")
				r.setWALGauge(0)
				if err := r.ReplayWAL(ctx); err != nil {
					r.logger.Error("failed to replay audit WAL after recovery", "error", err)
					r.markUnavailable(err)
				}
			}
		}
	}
}

// ReplayWAL pushes WAL contents into the stream and truncates it.
func (r *AuditRepository) ReplayWAL(ctx context.Context) error {
	if err := r.wal.Replay(ctx, func(event domain.AuditEvent) error {
		return r.add(ctx, event)
	}); err != nil {
		return fmt.Errorf("audit WAL replay failed: %w", err)
	}
	if err := r.wal.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to truncate audit WAL after replay: %w", err)
	}
	return nil
}

// BufferEvent appends the event to the stream, or to the WAL while Redis is
// down.
func (r *AuditRepository) BufferEvent(ctx context.Context, event domain.AuditEvent) error {
	if !r.available.Load() {
		return r.writeWAL(ctx, event, nil)
	}
	err := r.add(ctx, event)
	if err != nil && isNetworkError(err) {
		r.markUnavailable(err)
		return r.writeWAL(ctx, event, err)
	}
	return err
}

func (r *AuditRepository) writeWAL(ctx context.Context, event domain.AuditEvent, cause error) error {
	if r.wal == nil {
		if cause != nil {
			return fmt.Errorf("redis unavailable and no WAL configured: %w", cause)
		}
		return errors.New("redis unavailable and no WAL configured")
	}
	r.logger.Warn("redis unavailable, writing audit event to WAL", "event_id", event.ID)
	return r.wal.Write(ctx, event)
}

func (r *AuditRepository) add(ctx context.Context, event domain.AuditEvent) error {
	values, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := r.client.XAdd(ctx, &redis.XAddArgs{Stream: r.stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("failed to XADD audit event: %w", err)
	}
	return nil
}

// ReadBatch reads new events for consumer, blocking briefly when the stream
// is empty.
func (r *AuditRepository) ReadBatch(ctx context.Context, group, consumer string, count int) ([]domain.AuditEvent, error) {
	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{r.stream, ">"},
		Count:    int64(count),
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to XREADGROUP audit stream: %w", err)
	}
	if len(streams) == 0 {
		return nil, nil
	}

	events := make([]domain.AuditEvent, 0, len(streams[0].Messages))
	for _, msg := range streams[0].Messages {
		event, err := decodeEvent(msg)
		if err != nil {
			r.logger.Warn("skipping malformed audit message", "message_id", msg.ID, "error", err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Acknowledge marks messages as processed for group.
func (r *AuditRepository) Acknowledge(ctx context.Context, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := r.client.XAck(ctx, r.stream, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("failed to XACK audit messages: %w", err)
	}
	return nil
}

// MoveToDLQ copies events to the dead-letter stream in one pipeline.
func (r *AuditRepository) MoveToDLQ(ctx context.Context, events []domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	failedAt := time.Now().UTC().Format(time.RFC3339)

	pipe := r.client.Pipeline()
	for _, event := range events {
		values, err := encodeEvent(event)
		if err != nil {
			r.logger.Error("failed to encode audit event for DLQ", "event_id", event.ID, "error", err)
			continue
		}
		values["original_stream"] = r.stream
		values["original_msg_id"] = event.StreamMessageID
		values["failed_at"] = failedAt
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: r.dlqStream, Values: values})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute DLQ pipeline: %w", err)
	}
	r.logger.Warn("moved audit events to DLQ", "count", len(events))
	return nil
}

// WriteBatch is served by the PostgreSQL sink.
func (r *AuditRepository) WriteBatch(ctx context.Context, events []domain.AuditEvent) error {
	return errSinkNotSupported
}

func (r *AuditRepository) markUnavailable(err error) {
	if r.available.CompareAndSwap(true, false) {
		r.logger.Error("redis connection lost", "error", err)
		r.setWALGauge(1)
	}
}

func (r *AuditRepository) setWALGauge(v float64) {
	if r.metrics != nil && r.wal != nil {
		r.metrics.AuditWALActive.Set(v)
	}
}

func encodeEvent(event domain.AuditEvent) (map[string]interface{}, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit event: %w", err)
	}
	return map[string]interface{}{
		payloadField: string(payload),
		"tenant_id":  event.TenantID,
	}, nil
}

func decodeEvent(msg redis.XMessage) (domain.AuditEvent, error) {
	var event domain.AuditEvent
	payload, ok := msg.Values[payloadField].(string)
	if !ok {
		return event, fmt.Errorf("message has no %q field", payloadField)
	}
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, err
	}
	event.StreamMessageID = msg.ID
	return event, nil
}

func isBusyGroupError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
