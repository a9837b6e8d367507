package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pinauth/pin-relay/internal/model"
	redisclient "github.com/pinauth/pin-relay/internal/redis"
)

// ResultCache keeps normalized results so a client can re-fetch one by
// session ID after the upload request has returned.
type ResultCache interface {
	Put(ctx context.Context, result model.AnalysisResult) error
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, sessionID string) (*model.AnalysisResult, error)
}

type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	return &RedisResultCache{client: client, ttl: ttl}
}

func (c *RedisResultCache) Put(ctx context.Context, result model.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return c.client.Set(ctx, redisclient.ResultKey(result.SessionID), data, c.ttl).Err()
}

func (c *RedisResultCache) Get(ctx context.Context, sessionID string) (*model.AnalysisResult, error) {
	data, err := c.client.Get(ctx, redisclient.ResultKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result model.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

// NopResultCache is used when REDIS_URL is not set; every Get misses.
type NopResultCache struct{}

func (NopResultCache) Put(context.Context, model.AnalysisResult) error { return nil }

func (NopResultCache) Get(context.Context, string) (*model.AnalysisResult, error) { return nil, nil }
