package redis

import (
	"testing"

	"github.com/Madhu097/realestate-fraud-detection/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	cfg := &config.RedisConfig{Host: "redis.internal", Port: "6380", Password: "secret", DB: 2}

	opts := Options(cfg)

	assert.Equal(t, "redis.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for connection retries")
	}
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: "1", DB: 0}

	client, err := NewRedisClient(cfg)

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
