package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/docqa/internal/domain"
)

// AdminRepository reports on the audit streams: the events they hold and the
// sink groups draining them.
type AdminRepository struct {
	client *redis.Client
	logger *slog.Logger
}

// NewAdminRepository creates an AdminRepository.
func NewAdminRepository(client *redis.Client, logger *slog.Logger) *AdminRepository {
	return &AdminRepository{
		client: client,
		logger: logger.With("component", "audit_stream_admin"),
	}
}

// GetStreamSummary decodes the newest audit event and tallies the last recent
// entries by tenant. A missing stream is reported as empty.
func (r *AdminRepository) GetStreamSummary(ctx context.Context, stream string, recent int64) (*domain.AuditStreamSummary, error) {
	if recent < 0 {
		return nil, fmt.Errorf("recent must not be negative, got %d", recent)
	}
	info, err := r.client.XInfoStream(ctx, stream).Result()
	if err != nil {
		if isNoSuchKey(err) {
			return summarizeAuditStream(stream, nil, nil), nil
		}
		return nil, fmt.Errorf("failed to describe audit stream %s: %w", stream, err)
	}

	var tail []redis.XMessage
	if recent > 0 {
		tail, err = r.client.XRevRangeN(ctx, stream, "+", "-", recent).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read audit stream %s: %w", stream, err)
		}
	}

	summary := summarizeAuditStream(stream, info, tail)
	if summary.Undecodable > 0 {
		r.logger.Warn("audit stream holds undecodable entries", "stream", stream, "count", summary.Undecodable)
	}
	return summary, nil
}

// summarizeAuditStream builds the summary from XINFO STREAM output and the
// newest-first tail of the stream.
func summarizeAuditStream(stream string, info *redis.XInfoStream, tail []redis.XMessage) *domain.AuditStreamSummary {
	summary := &domain.AuditStreamSummary{
		Stream:         stream,
		RecentByTenant: make(map[string]int64),
	}
	if info == nil {
		return summary
	}
	summary.Length = info.Length
	summary.Groups = info.Groups
	summary.EntriesAdded = info.EntriesAdded
	summary.FirstEntryID = info.FirstEntry.ID
	summary.LastEntryID = info.LastEntry.ID

	if info.LastEntry.ID != "" {
		if event, err := decodeEvent(info.LastEntry); err == nil {
			summary.LastEvent = &event
		}
	}

	for _, msg := range tail {
		summary.RecentScanned++
		event, err := decodeEvent(msg)
		if err != nil {
			summary.Undecodable++
			continue
		}
		summary.RecentByTenant[event.TenantID]++
		if event.Answered {
			summary.RecentAnswered++
		}
	}
	return summary
}

func isNoSuchKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such key")
}

// GetGroupInfo lists the sink groups reading an audit stream.
func (r *AdminRepository) GetGroupInfo(ctx context.Context, stream string) ([]domain.ConsumerGroupInfo, error) {
	groups, err := r.client.XInfoGroups(ctx, stream).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sink groups on audit stream %s: %w", stream, err)
	}

	out := make([]domain.ConsumerGroupInfo, 0, len(groups))
	for _, g := range groups {
		out = append(out, domain.ConsumerGroupInfo{
			Name:            g.Name,
			Consumers:       g.Consumers,
			Pending:         g.Pending,
			LastDeliveredID: g.LastDeliveredID,
		})
	}
	return out, nil
}

// GetConsumerInfo lists the audit consumers in one sink group.
func (r *AdminRepository) GetConsumerInfo(ctx context.Context, stream, group string) ([]domain.ConsumerInfo, error) {
	consumers, err := r.client.XInfoConsumers(ctx, stream, group).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list audit consumers in %s/%s: %w", stream, group, err)
	}

	out := make([]domain.ConsumerInfo, 0, len(consumers))
	for _, c := range consumers {
		out = append(out, domain.ConsumerInfo{
			Name:    c.Name,
			Pending: c.Pending,
			IdleMS:  c.Idle.Milliseconds(),
		})
	}
	return out, nil
}

// GetPendingSummary reports audit events delivered to a sink group but not
// yet acknowledged.
func (r *AdminRepository) GetPendingSummary(ctx context.Context, stream, group string) (*domain.PendingMessageSummary, error) {
	pending, err := r.client.XPending(ctx, stream, group).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read unacknowledged audit events in %s/%s: %w", stream, group, err)
	}
	return &domain.PendingMessageSummary{
		Total:          pending.Count,
		FirstMessageID: pending.Lower,
		LastMessageID:  pending.Higher,
		ConsumerTotals: pending.Consumers,
	}, nil
}

// TrimStream caps an audit stream at maxLen events and returns how many were
// dropped. Events a sink has not acknowledged are dropped too.
func (r *AdminRepository) TrimStream(ctx context.Context, stream string, maxLen int64) (int64, error) {
	if maxLen < 0 {
		return 0, fmt.Errorf("maxLen must not be negative, got %d", maxLen)
	}
	removed, err := r.client.XTrimMaxLen(ctx, stream, maxLen).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to trim audit stream %s: %w", stream, err)
	}
	r.logger.Info("trimmed audit stream", "stream", stream, "max_len", maxLen, "dropped_events", removed)
	return removed, nil
}
