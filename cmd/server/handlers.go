package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/insurance-cost-estimator/internal/errors"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/monitoring"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/pricing"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/types"
)

// handlePredict godoc
// @Summary      Estimate a health insurance premium
// @Tags         prediction
// @Accept       json
// @Produce      json
// @Param        input  body      object  true  "Attribute name to value"
// @Success      200    {object}  types.PredictResponse
// @Failure      400    {object}  errors.Response
// @Failure      413    {object}  errors.Response
// @Failure      429    {object}  errors.Response
// @Failure      500    {object}  errors.Response
// @Router       /predict [post]
func (s *server) handlePredict(c *gin.Context) {
	start := time.Now()

	var input pricing.RawInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.fail(c, apperrors.FromBindError(err))
		return
	}

	if s.cfg.StrictValidation {
		if err := input.Validate(); err != nil {
			s.fail(c, apperrors.FromPredictionError(err))
			return
		}
	}

	if err := c.Request.Context().Err(); err != nil {
		s.fail(c, apperrors.ToAppError(err))
		return
	}

	est, err := s.predictor.Estimate(input)
	if err != nil {
		s.fail(c, apperrors.FromPredictionError(err))
		return
	}

	s.metrics.RecordPrediction(string(est.Band), est.Cost)
	s.logger.PredictionLogger(monitoring.RequestID(c), string(est.Band), est.Cost, len(input), time.Since(start))

	c.JSON(http.StatusOK, types.NewPredictResponse(est))
}

// fail hands appErr to the error handler middleware
func (s *server) fail(c *gin.Context, appErr *apperrors.AppError) {
	s.metrics.RecordPredictionError(string(appErr.Category))
	_ = c.Error(appErr)
	c.Abort()
}

// handleOptions godoc
// @Summary  List form fields, ranges and choices
// @Tags     prediction
// @Produce  json
// @Success  200  {object}  pricing.FormOptions
// @Router   /options [get]
func (s *server) handleOptions(c *gin.Context) {
	c.JSON(http.StatusOK, pricing.Options())
}

// handleHealth godoc
// @Summary  Service health and runtime statistics
// @Tags     operations
// @Produce  json
// @Success  200  {object}  types.HealthResponse
// @Router   /health [get]
func (s *server) handleHealth(c *gin.Context) {
	status := "ok"
	services := map[string]string{
		"artifacts": "ok",
		"redis":     "disabled",
	}

	if s.cfg.RedisEnabled() {
		services["redis"] = "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.HealthCheck(ctx); err != nil {
			services["redis"] = "degraded"
			status = "degraded"
		}
	}

	metrics := s.metrics.GetStats()
	metrics["rate_limiter"] = s.limiter.GetStats()
	metrics["compression"] = s.compression.GetStats()
	if s.cache != nil {
		metrics["cache"] = s.cache.Stats()
	}

	c.JSON(http.StatusOK, types.HealthResponse{
		Status:      status,
		Timestamp:   time.Now().Format(time.RFC3339),
		Version:     version,
		ArtifactDir: s.cfg.ArtifactDir,
		Services:    services,
		Metrics:     metrics,
	})
}
