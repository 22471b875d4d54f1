package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aimedguru/backend/pkg/logger"
)

const historyKeyPrefix = "chat:history:"

// HistoryCache is a best-effort read-through cache for history retrieval.
// Every failure is swallowed; the store stays the source of truth.
type HistoryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewHistoryCache(rdb *redis.Client, ttl time.Duration) *HistoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &HistoryCache{rdb: rdb, ttl: ttl}
}

func (c *HistoryCache) Get(ctx context.Context, sessionID string) ([]Message, bool) {
	raw, err := c.rdb.Get(ctx, historyKeyPrefix+sessionID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warnf("history cache get session=%s: %v", sessionID, err)
		}
		return nil, false
	}
	var msgs []Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		logger.Warnf("history cache decode session=%s: %v", sessionID, err)
		return nil, false
	}
	return msgs, true
}

func (c *HistoryCache) Set(ctx context.Context, sessionID string, msgs []Message) {
	raw, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, historyKeyPrefix+sessionID, raw, c.ttl).Err(); err != nil {
		logger.Warnf("history cache set session=%s: %v", sessionID, err)
	}
}

func (c *HistoryCache) Invalidate(ctx context.Context, sessionID string) {
	if err := c.rdb.Del(ctx, historyKeyPrefix+sessionID).Err(); err != nil {
		logger.Warnf("history cache del session=%s: %v", sessionID, err)
	}
}
