package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/resilience"
)

// RedisClient wraps the Redis client used for distributed rate limiting.
// A disabled client makes the limiter run in memory only.
type RedisClient struct {
	client  *redis.Client
	enabled bool
	addr    string
}

// NewRedisClient connects to Redis. An empty addr returns a disabled
// client without error; a failed ping returns a disabled client and the
// ping error so the caller can decide whether to continue.
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	if addr == "" {
		slog.Info("Redis not configured, rate limiting will run in memory")
		return &RedisClient{enabled: false}, nil
	}

	slog.Info("Initializing Redis client", "addr", addr, "db", db)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return &RedisClient{enabled: false, addr: addr}, fmt.Errorf("redis ping failed: %w", err)
	}

	slog.Info("Redis client connected", "addr", addr)

	return &RedisClient{
		client:  client,
		enabled: true,
		addr:    addr,
	}, nil
}

// ConnectRedis retries NewRedisClient with backoff. On final failure it
// returns a disabled client and the last error.
func ConnectRedis(ctx context.Context, addr, password string, db int, retry resilience.RetryConfig) (*RedisClient, error) {
	var client *RedisClient
	err := resilience.RetryWithConfig(ctx, retry, func() error {
		var err error
		client, err = NewRedisClient(addr, password, db)
		if err != nil {
			slog.Warn("Redis connection attempt failed", "addr", addr, "error", err)
		}
		return err
	})
	if client == nil {
		client = NewDisabledRedisClient()
	}
	return client, err
}

// NewDisabledRedisClient returns a client that never talks to Redis
func NewDisabledRedisClient() *RedisClient {
	return &RedisClient{enabled: false}
}

// GetClient returns the underlying Redis client
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

// IsEnabled returns whether Redis is enabled and was reachable at start
func (r *RedisClient) IsEnabled() bool {
	return r != nil && r.enabled
}

// HealthCheck pings Redis
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if !r.IsEnabled() {
		return fmt.Errorf("redis is disabled")
	}

	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	if r.IsEnabled() && r.client != nil {
		slog.Info("Closing Redis client connection")
		return r.client.Close()
	}
	return nil
}

// GetPoolStats returns Redis connection pool statistics
func (r *RedisClient) GetPoolStats() map[string]interface{} {
	if !r.IsEnabled() || r.client == nil {
		return map[string]interface{}{
			"enabled": false,
		}
	}

	stats := r.client.PoolStats()

	return map[string]interface{}{
		"enabled":     true,
		"addr":        r.addr,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
