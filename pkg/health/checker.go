package health

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// DefaultTimeout bounds a single dependency check.
const DefaultTimeout = 2 * time.Second

// ContextChecker adapts a context-aware ping into a health check function.
func ContextChecker(ping func(ctx context.Context) error, timeout time.Duration) func() error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return ping(ctx)
	}
}

// PoolChecker returns a health check function for a pgx pool
func PoolChecker(pool *pgxpool.Pool) func() error {
	return ContextChecker(pool.Ping, DefaultTimeout)
}

// DatabaseChecker returns a health check function for a database/sql handle
func DatabaseChecker(db *sql.DB) func() error {
	return ContextChecker(db.PingContext, DefaultTimeout)
}

// RedisChecker returns a health check function for Redis
func RedisChecker(client redis.UniversalClient) func() error {
	return ContextChecker(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, DefaultTimeout)
}
