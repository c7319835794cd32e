package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/docqa/internal/domain"
)

// AnswerCache stores JSON-encoded answers under caller-built, tenant-scoped
// keys.
type AnswerCache struct {
	client *redis.Client
}

// NewAnswerCache creates a new AnswerCache.
func NewAnswerCache(client *redis.Client) *AnswerCache {
	return &AnswerCache{client: client}
}

// Get returns the cached answer, reporting false on a miss.
func (c *AnswerCache) Get(ctx context.Context, key string) (domain.Answer, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Answer{}, false, nil
		}
		return domain.Answer{}, false, fmt.Errorf("failed to GET cached answer: %w", err)
	}

	var answer domain.Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return domain.Answer{}, false, fmt.Errorf("failed to decode cached answer: %w", err)
	}
	return answer, true, nil
}

// Set stores answer for ttl. A zero ttl keeps it until evicted.
func (c *AnswerCache) Set(ctx context.Context, key string, answer domain.Answer, ttl time.Duration) error {
	raw, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to encode answer: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to SET cached answer: %w", err)
	}
	return nil
}
