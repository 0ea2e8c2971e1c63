package monitoring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Logger provides enhanced structured logging with context
type Logger struct {
	*slog.Logger
}

// LogConfig selects the level ("debug", "info", "warn", "error") and
// format ("json", "text") of a Logger.
type LogConfig struct {
	Level  string
	Format string
}

// NewLogger creates a logger writing to stdout and installs it as the
// slog default.
func NewLogger(cfg LogConfig) *Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg LogConfig) *Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return &Logger{Logger: logger}
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(requestID, method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// PredictionLogger logs a completed estimate. Attribute values are not
// logged.
func (l *Logger) PredictionLogger(requestID, band string, cost int, attributes int, duration time.Duration) {
	l.Info("Prediction Completed",
		"request_id", requestID,
		"age_band", band,
		"predicted_cost", cost,
		"attributes", attributes,
		"duration_us", duration.Microseconds(),
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		caller = file + ":" + strconv.Itoa(line)
	}

	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"caller", caller,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// SecurityLogger logs security-related events
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]interface{}) {
	attrs := []any{
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
	}

	for key, value := range details {
		attrs = append(attrs, key, value)
	}

	l.Warn("Security Event", attrs...)
}

// PerformanceLogger logs performance metrics
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Log(context.Background(), slog.LevelWarn, "Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
	)
}

var startTime = time.Now()
