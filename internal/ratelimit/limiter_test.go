package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/monitoring"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/resilience"
)

func newTestLimiter(t *testing.T, config Config) *RateLimiter {
	t.Helper()
	limiter := NewRateLimiter(NewDisabledRedisClient(), config, monitoring.NewMetrics())
	t.Cleanup(func() { _ = limiter.Close() })
	return limiter
}

func TestRateLimiterFallbackMode(t *testing.T) {
	limiter := newTestLimiter(t, DefaultConfig())

	ctx := context.Background()
	key := "test:ip:127.0.0.1"
	rateLimit := Rate{Limit: 5, Period: time.Minute}

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, key, rateLimit)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "Request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
		assert.Equal(t, BackendMemory, result.Backend)
		assert.Equal(t, 4-i, result.Remaining)
	}

	result, err := limiter.Allow(ctx, key, rateLimit)
	require.NoError(t, err)
	assert.False(t, result.Allowed, "6th request should be blocked")
	assert.Greater(t, result.RetryAfter, time.Duration(0))
}

func TestRateLimiterBurstCapacity(t *testing.T) {
	limiter := newTestLimiter(t, DefaultConfig())

	ctx := context.Background()
	rateLimit := Rate{Limit: 5, Burst: 10, Period: time.Minute}

	allowedCount := 0
	for i := 0; i < 15; i++ {
		result, err := limiter.Allow(ctx, "test:burst", rateLimit)
		require.NoError(t, err)
		if result.Allowed {
			allowedCount++
		}
	}

	assert.Equal(t, 10, allowedCount)
}

func TestRateLimiterMultipleKeys(t *testing.T) {
	limiter := newTestLimiter(t, DefaultConfig())

	ctx := context.Background()
	rateLimit := Rate{Limit: 3, Period: time.Minute}

	for _, key := range []string{"ip:1", "ip:2", "ip:3"} {
		for i := 0; i < 3; i++ {
			result, err := limiter.Allow(ctx, key, rateLimit)
			require.NoError(t, err)
			assert.True(t, result.Allowed, "Key %s request %d should be allowed", key, i+1)
		}

		result, err := limiter.Allow(ctx, key, rateLimit)
		require.NoError(t, err)
		assert.False(t, result.Allowed, "Key %s 4th request should be blocked", key)
	}
}

func TestRateLimiterAllowIPUsesConfiguredLimit(t *testing.T) {
	limiter := newTestLimiter(t, Config{IPLimit: 2, Burst: 1, EnableFallback: true})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		result, err := limiter.AllowIP(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 2, result.Limit)
	}

	result, err := limiter.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	result, err = limiter.AllowIP(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRateLimiterRejectsInvalidRate(t *testing.T) {
	limiter := newTestLimiter(t, DefaultConfig())

	_, err := limiter.Allow(context.Background(), "k", Rate{Limit: 0, Period: time.Minute})
	assert.Error(t, err)
	_, err = limiter.Allow(context.Background(), "k", Rate{Limit: 1})
	assert.Error(t, err)
}

func TestRateLimiterStats(t *testing.T) {
	limiter := newTestLimiter(t, DefaultConfig())

	for i := 0; i < 3; i++ {
		_, _ = limiter.Allow(context.Background(), "test:stats", Rate{Limit: 5, Period: time.Minute})
	}

	stats := limiter.GetStats()
	assert.False(t, stats["redis_enabled"].(bool))
	assert.True(t, stats["fallback_enabled"].(bool))
	assert.Equal(t, 1, stats["fallback_limiters"])

	statsConfig := stats["config"].(map[string]interface{})
	assert.Equal(t, 60, statsConfig["ip_limit_per_min"])
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := newTestLimiter(t, Config{IPLimit: 10, EnableFallback: true, CleanupInterval: 10 * time.Millisecond})

	ctx := context.Background()
	rateLimit := Rate{Limit: 5, Period: time.Minute}

	for i := 0; i < 100; i++ {
		_, _ = limiter.Allow(ctx, fmt.Sprintf("test:cleanup:%d", i), rateLimit)
	}

	time.Sleep(50 * time.Millisecond)
	limiter.cleanup()

	assert.Equal(t, 0, limiter.GetStats()["fallback_limiters"])
}

func TestRateLimiterConcurrency(t *testing.T) {
	limiter := newTestLimiter(t, DefaultConfig())

	ctx := context.Background()
	rateLimit := Rate{Limit: 100, Period: time.Hour}

	var mu sync.Mutex
	allowed := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				result, err := limiter.Allow(ctx, "test:concurrent", rateLimit)
				assert.NoError(t, err)
				if result.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
}

func TestRateLimiterContextCancellation(t *testing.T) {
	limiter := newTestLimiter(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := limiter.Allow(ctx, "test:cancelled", Rate{Limit: 5, Period: time.Minute})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRateLimiterCloseIsIdempotent(t *testing.T) {
	limiter := NewRateLimiter(NewDisabledRedisClient(), DefaultConfig(), nil)
	assert.NoError(t, limiter.Close())
	assert.NoError(t, limiter.Close())
}

func TestIPRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := newTestLimiter(t, Config{IPLimit: 1, Burst: 1, EnableFallback: true})

	router := gin.New()
	router.Use(limiter.IPRateLimitMiddleware())
	router.POST("/predict", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/ratelimit/status", limiter.HandleRateLimitStatus())

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/predict", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		router.ServeHTTP(w, req)
		return w
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, http.StatusOK, send().Code)

	blocked := send()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), `"category":"rate_limit"`)
	assert.Contains(t, blocked.Body.String(), `"retry_after"`)
	assert.EqualValues(t, 1, limiter.metrics.RateLimitIPBlocks)

	w := httptest.NewRecorder()
	status := httptest.NewRequest(http.MethodGet, "/ratelimit/status", nil)
	status.RemoteAddr = "192.0.2.9:1234"
	router.ServeHTTP(w, status)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"backend":"memory"`)
}

func TestConnectRedis(t *testing.T) {
	client, err := ConnectRedis(context.Background(), "", "", 0, resilience.DefaultRetryConfig())
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())

	retry := resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, BackoffFactor: 1}
	client, err = ConnectRedis(context.Background(), "127.0.0.1:1", "", 0, retry)
	assert.Error(t, err)
	require.NotNil(t, client)
	assert.False(t, client.IsEnabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiterFallsBackWhenRedisFails(t *testing.T) {
	unreachable := &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			MaxRetries:  -1,
			DialTimeout: 100 * time.Millisecond,
		}),
		enabled: true,
		addr:    "127.0.0.1:1",
	}
	metrics := monitoring.NewMetrics()
	limiter := NewRateLimiter(unreachable, DefaultConfig(), metrics)
	t.Cleanup(func() { _ = limiter.Close() })

	threshold := resilience.DefaultCircuitBreakerConfig().FailureThreshold
	for i := 0; i < threshold+3; i++ {
		result, err := limiter.AllowIP(context.Background(), "203.0.113.9")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, BackendMemory, result.Backend)
	}

	stats := metrics.GetRateLimitStats()
	assert.EqualValues(t, threshold, stats["redis_errors"])
	assert.EqualValues(t, threshold+3, stats["fallback_count"])
	assert.Equal(t, resilience.StateOpen, limiter.breaker.State())
	assert.Equal(t, "open", limiter.GetStats()["redis_breaker"].(map[string]interface{})["state"])
}

func TestRateLimiterWithoutFallbackReturnsRedisError(t *testing.T) {
	unreachable := &RedisClient{
		client:  redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond}),
		enabled: true,
	}
	config := DefaultConfig()
	config.EnableFallback = false
	limiter := NewRateLimiter(unreachable, config, nil)
	t.Cleanup(func() { _ = limiter.Close() })

	_, err := limiter.AllowIP(context.Background(), "203.0.113.9")
	assert.Error(t, err)
}
