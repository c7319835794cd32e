package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultReloadChannel is the pub/sub channel reload announcements use.
const DefaultReloadChannel = "docqa:reload"

type reloadMessage struct {
	Origin   string    `json:"origin"`
	TenantID string    `json:"tenant_id"`
	SentAt   time.Time `json:"sent_at"`
}

// ReloadBus announces tenant reloads to every replica over Redis pub/sub.
type ReloadBus struct {
	client     *redis.Client
	channel    string
	instanceID string
	logger     *slog.Logger
}

// NewReloadBus creates a bus with a fresh instance ID.
func NewReloadBus(client *redis.Client, channel string, logger *slog.Logger) *ReloadBus {
	if channel == "" {
		channel = DefaultReloadChannel
	}
	return &ReloadBus{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     logger.With("component", "reload_bus"),
	}
}

// InstanceID identifies this replica on the bus.
func (b *ReloadBus) InstanceID() string { return b.instanceID }

// PublishReload announces that tenantID was reloaded here.
func (b *ReloadBus) PublishReload(ctx context.Context, tenantID string) error {
	payload, err := encodeReload(b.instanceID, tenantID)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish reload for %s: %w", tenantID, err)
	}
	return nil
}

// Subscribe calls apply for every reload announced by another replica until
// ctx is done.
func (b *ReloadBus) Subscribe(ctx context.Context, apply func(tenantID string)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	b.logger.Info("listening for reload announcements", "channel", b.channel, "instance_id", b.instanceID)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			tenantID, remote, err := decodeReload(msg.Payload, b.instanceID)
			if err != nil {
				b.logger.Warn("ignoring malformed reload message", "error", err)
				continue
			}
			if remote {
				apply(tenantID)
			}
		}
	}
}

func encodeReload(origin, tenantID string) (string, error) {
	raw, err := json.Marshal(reloadMessage{Origin: origin, TenantID: tenantID, SentAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("failed to encode reload message: %w", err)
	}
	return string(raw), nil
}

// decodeReload reports the tenant and whether the message came from another
// instance than self.
func decodeReload(payload, self string) (string, bool, error) {
	var msg reloadMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return "", false, err
	}
	if msg.TenantID == "" {
		return "", false, fmt.Errorf("reload message without tenant_id")
	}
	return msg.TenantID, msg.Origin != self, nil
}
