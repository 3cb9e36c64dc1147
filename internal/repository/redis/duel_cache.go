package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skillduels/backend/internal/domain"
)

const latestDuelKey = "duels:latest"
const latestDuelTTL = 30 * time.Second

// DuelCache caches the latest completed duel record.
type DuelCache struct {
	client *redis.Client
}

func NewDuelCache(client *redis.Client) *DuelCache {
	return &DuelCache{client: client}
}

// GetLatest returns the cached record, or nil on miss.
func (c *DuelCache) GetLatest(ctx context.Context) (*domain.DuelRecord, error) {
	data, err := c.client.Get(ctx, latestDuelKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec domain.DuelRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetLatest stores the record with a short TTL.
func (c *DuelCache) SetLatest(ctx context.Context, rec *domain.DuelRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, latestDuelKey, data, latestDuelTTL).Err()
}
