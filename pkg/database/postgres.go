package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/pkg/config"
	"github.com/Madhu097/realestate-fraud-detection/pkg/resilience"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

// connectRetry is used while waiting for the database at startup.
var connectRetry = resilience.RetryConfig{
	MaxAttempts:       5,
	InitialBackoff:    time.Second,
	MaxBackoff:        10 * time.Second,
	BackoffMultiplier: 2.0,
	EnableJitter:      true,
}

// PoolConfig converts the configuration to a pgx pool configuration.
func PoolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	return poolConfig, nil
}

// NewPostgresPool creates a new PostgreSQL connection pool
func NewPostgresPool(cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := ping(func(ctx context.Context) error { return pool.Ping(ctx) }); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// OpenSQL opens a database/sql handle on the lib/pq driver. The corpus
// stores use it for session-level advisory locks.
func OpenSQL(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := ping(db.PingContext); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return db, nil
}

func ping(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := resilience.Retry(ctx, connectRetry, func(ctx context.Context) (interface{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return nil, fn(pingCtx)
	})
	return err
}

// Close closes the database connection pool
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
