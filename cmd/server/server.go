package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/insurance-cost-estimator/docs"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/cache"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/config"
	apperrors "github.com/ZanzyTHEbar/insurance-cost-estimator/internal/errors"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/middleware"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/monitoring"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/pricing"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/ratelimit"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/resilience"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/security"
)

const version = "1.0.0"

// server holds the long-lived dependencies shared by every request
type server struct {
	cfg         config.Config
	predictor   *pricing.Predictor
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	redis       *ratelimit.RedisClient
	limiter     *ratelimit.RateLimiter
	cache       *cache.Cache
	compression *middleware.CompressionMiddleware
	security    *security.SecurityMiddleware
}

// newServer loads the artifacts and builds the request pipeline
// dependencies. Artifact errors are fatal; an unreachable Redis only
// degrades rate limiting to memory.
func newServer(cfg config.Config, logger *monitoring.Logger) (*server, error) {
	artifacts, err := pricing.NewArtifactStore(cfg.ArtifactDir).LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}

	metrics := monitoring.NewMetrics()

	redisClient := ratelimit.NewDisabledRedisClient()
	if cfg.RedisEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		redisClient, err = ratelimit.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, resilience.DefaultRetryConfig())
		cancel()
		if err != nil {
			slog.Warn("Redis unavailable, rate limiting in memory", "addr", cfg.RedisAddr, "error", err)
		}
	}

	limiterConfig := ratelimit.DefaultConfig()
	limiterConfig.IPLimit = cfg.RateLimitPerMin
	limiterConfig.Burst = cfg.RateLimitBurst

	s := &server{
		cfg:         cfg,
		predictor:   pricing.NewPredictor(artifacts),
		metrics:     metrics,
		logger:      logger,
		redis:       redisClient,
		limiter:     ratelimit.NewRateLimiter(redisClient, limiterConfig, metrics),
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		security: security.NewSecurityMiddleware(security.SecurityConfig{
			MaxBodyBytes:   cfg.MaxBodyBytes,
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: cfg.RequestTimeout,
		}),
	}
	if cfg.CacheEnabled() {
		s.cache = cache.NewCache(cfg.CacheTTL, cfg.CacheMaxItems)
	}

	logger.SystemLogger("startup", fmt.Sprintf("artifacts loaded from %s, redis enabled: %t, cache enabled: %t",
		cfg.ArtifactDir, redisClient.IsEnabled(), s.cache != nil))

	return s, nil
}

// Close releases the limiter, its Redis connection and the cache
func (s *server) Close() {
	apperrors.SafeClose(s.limiter, "rate limiter")
	if s.cache != nil {
		s.cache.Close()
	}
}

func setupRouter(s *server) *gin.Engine {
	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger, s.cfg.MaxBodyBytes))
	r.Use(s.security.CORS())
	r.Use(s.security.SecurityHeaders)
	r.Use(s.compression.Handler())
	r.Use(apperrors.ErrorHandler())
	r.Use(s.security.RequestTimeout)

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/")
	api.Use(s.limiter.IPRateLimitMiddleware())
	api.GET("/options", s.handleOptions)
	api.GET("/ratelimit/status", s.limiter.HandleRateLimitStatus())

	predict := []gin.HandlerFunc{s.security.ValidateContentType, s.security.LimitBody}
	if s.cache != nil {
		predict = append(predict, s.cache.Middleware(s.metrics))
	}
	predict = append(predict, s.handlePredict)
	api.POST("/predict", predict...)

	return r
}
