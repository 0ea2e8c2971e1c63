package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"

	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/monitoring"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/resilience"
)

// Backends reported in Result.Backend
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds rate limiter configuration
type Config struct {
	IPLimit         int // requests per minute per client IP
	Burst           int // extra requests allowed in a burst; 0 means IPLimit
	EnableFallback  bool
	CleanupInterval time.Duration
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		IPLimit:         60,
		Burst:           10,
		EnableFallback:  true,
		CleanupInterval: 10 * time.Minute,
	}
}

// Rate is a limit of Limit requests per Period, with an optional burst
type Rate struct {
	Limit  int
	Burst  int
	Period time.Duration
}

func (r Rate) burst() int {
	if r.Burst > 0 {
		return r.Burst
	}
	return r.Limit
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	Backend    string
}

type fallbackEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter checks per-key limits in Redis when it is available and in
// memory otherwise
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	breaker      *resilience.CircuitBreaker
	config       Config
	metrics      *monitoring.Metrics

	fallbackLimiters map[string]*fallbackEntry
	fallbackMutex    sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		metrics:          metrics,
		fallbackLimiters: make(map[string]*fallbackEntry),
		stop:             make(chan struct{}),
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		rl.breaker = resilience.NewCircuitBreaker("redis", resilience.DefaultCircuitBreakerConfig())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Info("Using in-memory rate limiting")
	}

	go rl.cleanupLoop()

	return rl
}

// AllowIP checks the per-minute limit for a client IP
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	return rl.Allow(ctx, fmt.Sprintf("ratelimit:ip:%s", ip), Rate{
		Limit:  rl.config.IPLimit,
		Burst:  rl.config.IPLimit + rl.config.Burst,
		Period: time.Minute,
	})
}

// Allow checks one request against limit for key
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit Rate) (*Result, error) {
	if limit.Limit <= 0 || limit.Period <= 0 {
		return nil, fmt.Errorf("invalid rate limit %d per %s", limit.Limit, limit.Period)
	}

	if rl.redisLimiter != nil {
		var result *Result
		err := rl.breaker.Call(func() error {
			var err error
			result, err = rl.allowRedis(ctx, key, limit)
			return err
		})
		if err == nil {
			return result, nil
		}
		if !rl.config.EnableFallback {
			return nil, err
		}

		var open *resilience.CircuitBreakerError
		if !errors.As(err, &open) {
			slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitRedisError()
			}
		}
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitFallback()
		}
	}

	return rl.allowFallback(key, limit), nil
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string, limit Rate) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit.Limit,
		Burst:  limit.burst(),
		Period: limit.Period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
		Backend:    BackendRedis,
	}, nil
}

func (rl *RateLimiter) allowFallback(key string, limit Rate) *Result {
	now := time.Now()

	rl.fallbackMutex.Lock()
	entry, exists := rl.fallbackLimiters[key]
	if !exists {
		every := rate.Limit(float64(limit.Limit) / limit.Period.Seconds())
		entry = &fallbackEntry{limiter: rate.NewLimiter(every, limit.burst())}
		rl.fallbackLimiters[key] = entry
	}
	entry.lastSeen = now
	rl.fallbackMutex.Unlock()

	result := &Result{
		Limit:   limit.Limit,
		ResetAt: now.Add(limit.Period),
		Backend: BackendMemory,
	}

	reservation := entry.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		result.RetryAfter = delay
		result.ResetAt = now.Add(delay)
		return result
	}

	result.Allowed = true
	if remaining := int(entry.limiter.TokensAt(now)); remaining > 0 {
		result.Remaining = remaining
	}
	return result
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// cleanup drops in-memory limiters idle for longer than the cleanup interval
func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.config.CleanupInterval)

	rl.fallbackMutex.Lock()
	defer rl.fallbackMutex.Unlock()

	removed := 0
	for key, entry := range rl.fallbackLimiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.fallbackLimiters, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Cleaned up idle rate limiters", "removed", removed, "remaining", len(rl.fallbackLimiters))
	}
}

// Close stops the cleanup loop and closes the Redis client
func (rl *RateLimiter) Close() error {
	rl.stopOnce.Do(func() { close(rl.stop) })
	return rl.redisClient.Close()
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMutex.Lock()
	fallbackCount := len(rl.fallbackLimiters)
	rl.fallbackMutex.Unlock()

	stats := map[string]interface{}{
		"redis_enabled":     rl.redisClient.IsEnabled(),
		"fallback_enabled":  rl.config.EnableFallback,
		"fallback_limiters": fallbackCount,
		"config": map[string]interface{}{
			"ip_limit_per_min": rl.config.IPLimit,
			"burst":            rl.config.Burst,
		},
	}

	if rl.redisClient.IsEnabled() {
		stats["redis_pool"] = rl.redisClient.GetPoolStats()
		stats["redis_breaker"] = rl.breaker.Stats()
	}

	return stats
}
