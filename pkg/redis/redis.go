package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/pkg/config"
	"github.com/Madhu097/realestate-fraud-detection/pkg/resilience"
	"github.com/redis/go-redis/v9"
)

// connectRetry is used while waiting for Redis at startup.
var connectRetry = resilience.RetryConfig{
	MaxAttempts:       5,
	InitialBackoff:    500 * time.Millisecond,
	MaxBackoff:        5 * time.Second,
	BackoffMultiplier: 2.0,
	EnableJitter:      true,
}

// Client wraps the Redis client
type Client struct {
	*redis.Client
}

// NewRedisClient creates a new Redis client and waits until it answers PING.
func NewRedisClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(Options(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := resilience.Retry(ctx, connectRetry, func(ctx context.Context) (interface{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return nil, client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", cfg.RedisAddr(), err)
	}

	return &Client{Client: client}, nil
}

// Options converts the configuration to go-redis options.
func Options(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Close closes the Redis client
func (c *Client) Close() error {
	return c.Client.Close()
}
