package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/config"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/monitoring"
)

// @title        Health Insurance Cost Estimator API
// @version      1.0
// @description  Estimates annual health insurance premiums from demographic, lifestyle and medical attributes.
// @BasePath     /
func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger := monitoring.NewLogger(monitoring.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	gin.SetMode(cfg.GinMode)

	s, err := newServer(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(s),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.Port, "artifact_dir", cfg.ArtifactDir, "strict_validation", cfg.StrictValidation)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	slog.Info("Server exited")
	return nil
}
