package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/pricing"
)

// ErrorCategory groups errors by how the API reports and logs them
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryInternal      ErrorCategory = "internal"
	CategoryConfiguration ErrorCategory = "configuration"
)

// requestIDKey matches the key monitoring.RequestIDMiddleware stores.
const requestIDKey = "request_id"

// Detail keys used by the constructors below.
const (
	DetailReason     = "reason"
	DetailRetryAfter = "retry_after"
	DetailLimit      = "limit_bytes"
)

var codeLabels = map[errbuilder.ErrCode]string{
	errbuilder.CodeInvalidArgument:    "VALIDATION_ERROR",
	errbuilder.CodeOutOfRange:         "PAYLOAD_TOO_LARGE",
	errbuilder.CodeDeadlineExceeded:   "TIMEOUT_ERROR",
	errbuilder.CodeResourceExhausted:  "RATE_LIMIT_EXCEEDED",
	errbuilder.CodeInternal:           "INTERNAL_ERROR",
	errbuilder.CodeFailedPrecondition: "CONFIGURATION_ERROR",
}

// AppError is an errbuilder error together with the status and category
// the API reports for it. It always marshals as a Response.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory
	HTTPStatus int
	Timestamp  time.Time
	RequestID  string
	StackTrace string
}

// Response is the JSON body of every failed request.
type Response struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Category  ErrorCategory     `json:"category"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func (e *AppError) Error() string {
	label, ok := codeLabels[e.ErrBuilder.Code]
	if !ok {
		label = "UNKNOWN_ERROR"
	}
	return fmt.Sprintf("[%s] %s", label, e.ErrBuilder.Msg)
}

func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// Fields flattens the builder's error details into field → message.
func (e *AppError) Fields() map[string]string {
	if len(e.ErrBuilder.Details.Errors) == 0 {
		return nil
	}
	fields := make(map[string]string, len(e.ErrBuilder.Details.Errors))
	for key, err := range e.ErrBuilder.Details.Errors {
		if err != nil {
			fields[key] = err.Error()
		}
	}
	return fields
}

// Response builds the body written to the client.
func (e *AppError) Response() Response {
	return Response{
		Error:     e.ErrBuilder.Msg,
		Code:      e.ErrBuilder.Code.String(),
		Category:  e.Category,
		Details:   e.Fields(),
		RequestID: e.RequestID,
		Timestamp: e.Timestamp.UTC(),
	}
}

// MarshalJSON renders the Response instead of the embedded builder.
func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Response())
}

// NewAppError wraps builder. A builder without a cause gets its own
// message as cause so it stays printable and marshalable on its own.
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	if builder.Cause == nil {
		builder = builder.WithCause(errors.New(builder.Msg))
	}
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

func newError(code errbuilder.ErrCode, msg string, cause error, details map[string]string) *errbuilder.ErrBuilder {
	builder := errbuilder.New().WithCode(code).WithMsg(msg)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	if len(details) > 0 {
		errMap := errbuilder.ErrorMap{}
		for key, message := range details {
			errMap.Set(key, message)
		}
		builder = builder.WithDetails(errbuilder.NewErrDetails(errMap))
	}
	return builder
}

// NewValidationError reports a malformed request. The optional detail
// becomes the "reason" entry.
func NewValidationError(message string, details ...interface{}) *AppError {
	var fields map[string]string
	if len(details) > 0 {
		fields = map[string]string{DetailReason: fmt.Sprintf("%v", details[0])}
	}
	return NewAppError(newError(errbuilder.CodeInvalidArgument, message, nil, fields),
		CategoryValidation, http.StatusBadRequest)
}

// NewValidationErrorWithMap reports one message per invalid attribute
func NewValidationErrorWithMap(validationErrors map[string]string) *AppError {
	return NewAppError(newError(errbuilder.CodeInvalidArgument, "Invalid input", nil, validationErrors),
		CategoryValidation, http.StatusBadRequest)
}

// NewUnsupportedMediaTypeError rejects a body that is not JSON.
func NewUnsupportedMediaTypeError(got string) *AppError {
	if got == "" {
		got = "none"
	}
	return NewAppError(newError(errbuilder.CodeInvalidArgument, "Content-Type must be application/json", nil,
		map[string]string{DetailReason: "got " + got}),
		CategoryValidation, http.StatusUnsupportedMediaType)
}

// NewPayloadTooLargeError rejects a body over limit bytes.
func NewPayloadTooLargeError(limit int64, cause error) *AppError {
	return NewAppError(newError(errbuilder.CodeOutOfRange, "Request body too large", cause,
		map[string]string{DetailLimit: fmt.Sprintf("%d", limit)}),
		CategoryValidation, http.StatusRequestEntityTooLarge)
}

func NewTimeoutError(message string, cause error) *AppError {
	return NewAppError(newError(errbuilder.CodeDeadlineExceeded, message, cause, nil),
		CategoryTimeout, http.StatusGatewayTimeout)
}

func NewRateLimitError(retryAfter string) *AppError {
	return NewAppError(newError(errbuilder.CodeResourceExhausted, "Rate limit exceeded", nil,
		map[string]string{DetailRetryAfter: retryAfter}),
		CategoryRateLimit, http.StatusTooManyRequests)
}

// NewInternalError hides message from the client unless running in
// debug or test mode.
func NewInternalError(message string, cause error) *AppError {
	var fields map[string]string
	if gin.Mode() != gin.ReleaseMode {
		fields = map[string]string{DetailReason: message}
	}
	appErr := NewAppError(newError(errbuilder.CodeInternal, "Internal server error", cause, fields),
		CategoryInternal, http.StatusInternalServerError)
	if gin.Mode() != gin.ReleaseMode {
		appErr.StackTrace = captureStackTrace()
	}
	return appErr
}

// NewConfigurationError reports broken artifacts or settings
func NewConfigurationError(message string, cause error) *AppError {
	return NewAppError(newError(errbuilder.CodeFailedPrecondition, "Configuration error", cause,
		map[string]string{DetailReason: message}),
		CategoryConfiguration, http.StatusInternalServerError)
}

// FromPredictionError maps an error returned by the pricing pipeline or
// by input validation to the AppError the API reports.
func FromPredictionError(err error) *AppError {
	if err == nil {
		return nil
	}

	var problems pricing.ValidationErrors
	switch {
	case errors.As(err, &problems):
		return NewValidationErrorWithMap(problems)
	case errors.Is(err, pricing.ErrInvalidAge):
		return NewValidationErrorWithMap(map[string]string{pricing.AttrAge: "must be a number"})
	case errors.Is(err, pricing.ErrMissingAge):
		return NewValidationErrorWithMap(map[string]string{pricing.AttrAge: "is required"})
	case errors.Is(err, pricing.ErrInvalidScaler):
		return NewConfigurationError(err.Error(), err)
	}
	return ToAppError(err)
}

// FromBindError maps a failure to read or decode a request body.
func FromBindError(err error) *AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return NewPayloadTooLargeError(tooLarge.Limit, err)
	}
	return NewValidationError("Request body must be a JSON object", err.Error())
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Abort logs appErr and writes it as the response.
func Abort(c *gin.Context, appErr *AppError) {
	if appErr.RequestID == "" {
		appErr.RequestID = c.GetString(requestIDKey)
	}
	LogError(c, appErr)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
}

// ErrorHandler renders the last error a handler attached with c.Error
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		Abort(c, ToAppError(c.Errors.Last().Err))
	}
}

// RecoveryHandler turns panics into a 500 Response
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("panic: %v", recovered),
			fmt.Errorf("%v", recovered),
		)
		appErr.StackTrace = captureStackTrace()
		Abort(c, appErr)
	})
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) {
		return NewAppError(builder, CategoryInternal, http.StatusInternalServerError)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return NewTimeoutError("Request cancelled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError("Request deadline exceeded", err)
	case strings.Contains(err.Error(), "timeout"):
		return NewTimeoutError("Request timeout", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// LogError logs appErr at a level matching its category
func LogError(c *gin.Context, appErr *AppError) {
	attrs := []any{
		"error_category", appErr.Category,
		"error_code", appErr.ErrBuilder.Code.String(),
		"http_status", appErr.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", appErr.RequestID,
	}
	if fields := appErr.Fields(); len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		group := make([]any, 0, 2*len(keys))
		for _, k := range keys {
			group = append(group, k, fields[k])
		}
		attrs = append(attrs, slog.Group("details", group...))
	}
	if cause := appErr.Unwrap(); cause != nil && cause.Error() != appErr.ErrBuilder.Msg {
		attrs = append(attrs, "cause", cause.Error())
	}

	switch appErr.Category {
	case CategoryValidation, CategoryRateLimit:
		slog.Warn(appErr.ErrBuilder.Msg, attrs...)
	case CategoryTimeout:
		slog.Info(appErr.ErrBuilder.Msg, attrs...)
	default:
		slog.Error(appErr.ErrBuilder.Msg, attrs...)
	}

	if appErr.StackTrace != "" && gin.Mode() != gin.ReleaseMode {
		slog.Debug("stack_trace", "trace", appErr.StackTrace)
	}
}

// SafeClose closes a resource and logs any error
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
