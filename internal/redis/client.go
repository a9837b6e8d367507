package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pinrelay:"

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// ResultKey is where the normalized analysis for a session is cached.
func ResultKey(sessionID string) string {
	return fmt.Sprintf("%sresult:%s", keyPrefix, sessionID)
}

// RateLimitKey namespaces sliding-window counters.
func RateLimitKey(key string) string {
	return fmt.Sprintf("%sratelimit:%s", keyPrefix, key)
}
