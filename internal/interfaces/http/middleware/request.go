// Package middleware holds the gin middleware of the bookkeeping API:
// request IDs, CORS, limits, tracing and metrics.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joaodebarro/backend/internal/infrastructure/logger"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
)

const (
	// RequestIDKey is the gin context key the request ID is stored under
	RequestIDKey = logger.GinRequestIDKey
	// RequestIDHeader carries the request ID in and out
	RequestIDHeader = "X-Request-ID"
	// MaxRequestIDLength caps request IDs taken from headers
	MaxRequestIDLength = 128
	// ErrorCodeKey holds the error code of a failed response for tracing and metrics
	ErrorCodeKey = "error_code"
)

// RequestID adopts the caller's X-Request-ID when it is short enough,
// otherwise mints a UUID, and echoes the value in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > MaxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	id := c.GetHeader(RequestIDHeader)
	return id[:min(len(id), MaxRequestIDLength)]
}

// SetErrorCode records the code of the error envelope being written
func SetErrorCode(c *gin.Context, code string) {
	c.Set(ErrorCodeKey, code)
}

// ErrorCode returns the recorded error code, or "" for successful responses
func ErrorCode(c *gin.Context) string {
	return c.GetString(ErrorCodeKey)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	SetErrorCode(c, code)
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}
