// Package dto provides Data Transfer Objects for the sandbox HTTP API.
package dto

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ErrorResponse is the error body every sandbox endpoint returns. ErrorType
// is the field API clients match on.
type ErrorResponse struct {
	ErrorType string            `json:"errorType"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	TraceID   string            `json:"traceId,omitempty"`
}

// Error types for machine-readable error identification.
const (
	// ErrorTypeAccessTokenExpired means the bearer token is no longer valid.
	ErrorTypeAccessTokenExpired = "ACCESS_TOKEN_EXPIRED"

	// ErrorTypeUnauthorized means no valid credentials were presented.
	ErrorTypeUnauthorized = "UNAUTHORIZED"

	// ErrorTypeValidation means the request body failed validation.
	ErrorTypeValidation = "VALIDATION_FAILED"

	// ErrorTypeBadRequest means the request was malformed.
	ErrorTypeBadRequest = "BAD_REQUEST"

	// ErrorTypeNotFound means the route or resource does not exist.
	ErrorTypeNotFound = "NOT_FOUND"

	// ErrorTypeTimeout means the request deadline passed.
	ErrorTypeTimeout = "TIMEOUT"

	// ErrorTypeInternal means an internal server error.
	ErrorTypeInternal = "INTERNAL_ERROR"
)

// NewErrorResponse creates a new error response with the given type and message.
func NewErrorResponse(errorType, message string) *ErrorResponse {
	return &ErrorResponse{
		ErrorType: errorType,
		Message:   message,
	}
}

// NewErrorResponseWithDetails creates an error response with field details.
func NewErrorResponseWithDetails(errorType, message string, details map[string]string) *ErrorResponse {
	return &ErrorResponse{
		ErrorType: errorType,
		Message:   message,
		Details:   details,
	}
}

// WithTrace copies the trace ID of the active span in ctx, if any.
func (e *ErrorResponse) WithTrace(ctx context.Context) *ErrorResponse {
	if span := trace.SpanFromContext(ctx); span.SpanContext().HasTraceID() {
		e.TraceID = span.SpanContext().TraceID().String()
	}

	return e
}

// HTTPStatusFromErrorType maps error types to HTTP status codes.
func HTTPStatusFromErrorType(errorType string) int {
	switch errorType {
	case ErrorTypeAccessTokenExpired, ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case ErrorTypeBadRequest:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithErrorType stops the handler chain and writes an error body with
// the status that errorType maps to.
func AbortWithErrorType(c *gin.Context, errorType, message string) {
	c.AbortWithStatusJSON(
		HTTPStatusFromErrorType(errorType),
		NewErrorResponse(errorType, message).WithTrace(c.Request.Context()),
	)
}

// AbortWithValidationErrors writes a 422 VALIDATION_FAILED body with
// field-level details.
func AbortWithValidationErrors(c *gin.Context, details map[string]string) {
	c.AbortWithStatusJSON(
		http.StatusUnprocessableEntity,
		NewErrorResponseWithDetails(ErrorTypeValidation, "request validation failed", details).
			WithTrace(c.Request.Context()),
	)
}
