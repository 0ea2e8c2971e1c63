package security

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/insurance-cost-estimator/internal/errors"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxBodyBytes   int64         `json:"max_body_bytes"`
	AllowedOrigins []string      `json:"allowed_origins"`
	RequestTimeout time.Duration `json:"request_timeout"`
	EnableHSTS     bool          `json:"enable_hsts"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxBodyBytes:   16 << 10,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8501"},
		RequestTimeout: 10 * time.Second,
	}
}

// SecurityMiddleware bundles the HTTP hardening middleware
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{config: config}
}

// Config returns the active configuration
func (sm *SecurityMiddleware) Config() SecurityConfig {
	return sm.config
}

const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// swagger UI serves its own scripts and styles
const docsCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"

// SecurityHeaders adds security headers to responses
func (sm *SecurityMiddleware) SecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

	if strings.HasPrefix(c.Request.URL.Path, "/swagger/") {
		c.Header("Content-Security-Policy", docsCSP)
	} else {
		c.Header("Content-Security-Policy", apiCSP)
	}

	if sm.config.EnableHSTS || c.Request.TLS != nil {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	c.Next()
}

// ValidateContentType requires a JSON body on requests that carry one
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
		c.Next()
		return
	}

	contentType := c.GetHeader("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		apperrors.Abort(c, apperrors.NewUnsupportedMediaTypeError(contentType))
		return
	}

	c.Next()
}

// LimitBody caps the size of request bodies
func (sm *SecurityMiddleware) LimitBody(c *gin.Context) {
	if sm.config.MaxBodyBytes > 0 && c.Request.Body != nil {
		if c.Request.ContentLength > sm.config.MaxBodyBytes {
			apperrors.Abort(c, apperrors.NewPayloadTooLargeError(sm.config.MaxBodyBytes, nil))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxBodyBytes)
	}

	c.Next()
}

// RequestTimeout bounds the request context
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// CORS returns the gin-contrib/cors middleware for the configured origins.
// A "*" entry allows every origin.
func (sm *SecurityMiddleware) CORS() gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range sm.config.AllowedOrigins {
		if origin == "*" {
			config.AllowAllOrigins = true
			break
		}
	}
	if !config.AllowAllOrigins {
		config.AllowOrigins = sm.config.AllowedOrigins
	}

	return cors.New(config)
}
