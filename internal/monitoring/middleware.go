package monitoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestIDMiddleware assigns every request an ID, reusing a well-formed
// inbound X-Request-ID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// RequestID returns the ID assigned by RequestIDMiddleware
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// MonitoringMiddleware creates Gin middleware for request monitoring
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementRequest()

		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(method, route, statusCode, duration)

		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(RequestID(c), method, path, ip, userAgent, statusCode, duration)

		for _, err := range c.Errors {
			logger.APIErrorLogger(err.Err, method, path, ip, statusCode)
		}

		if duration > 5*time.Second {
			logger.PerformanceLogger("slow_request", duration.Seconds(), "seconds")
		}

		if statusCode >= 500 {
			logger.SystemLogger("server_error", fmt.Sprintf("Status %d for %s %s", statusCode, method, path))
		}
	}
}

// SecurityMonitoringMiddleware logs requests that look like probes
func SecurityMonitoringMiddleware(logger *Logger, maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		userAgent := c.GetHeader("User-Agent")
		details := make(map[string]interface{})

		if containsSQLInjectionPatterns(c.Request.URL.RawQuery) {
			details["type"] = "potential_sql_injection"
			details["query"] = c.Request.URL.RawQuery
		}

		if c.Request.Method == "POST" && c.Request.ContentLength > maxBodyBytes {
			details["type"] = "large_request_body"
			details["size_bytes"] = c.Request.ContentLength
		}

		if containsSuspiciousUserAgent(userAgent) {
			details["type"] = "suspicious_user_agent"
		}

		if len(details) > 0 {
			logger.SecurityLogger("suspicious_activity_detected", c.ClientIP(), userAgent, details)
		}

		c.Next()
	}
}

func containsSQLInjectionPatterns(query string) bool {
	patterns := []string{
		"union select",
		"union all",
		"select * from",
		"drop table",
		"delete from",
		"';--",
		"/*",
		"*/",
	}

	query = strings.ToLower(query)
	for _, pattern := range patterns {
		if strings.Contains(query, pattern) {
			return true
		}
	}
	return false
}

func containsSuspiciousUserAgent(userAgent string) bool {
	suspiciousAgents := []string{
		"sqlmap",
		"nmap",
		"masscan",
		"zmap",
		"dirbuster",
		"gobuster",
		"nikto",
		"acunetix",
		"nessus",
	}

	userAgent = strings.ToLower(userAgent)
	for _, agent := range suspiciousAgents {
		if strings.Contains(userAgent, agent) {
			return true
		}
	}
	return false
}
