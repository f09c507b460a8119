// Package middleware provides the HTTP middleware shared across modules.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"permitflow_backend/platform/httpkit"
	"permitflow_backend/platform/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns each request an id and threads it through the context so
// log lines across layers correlate.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger logs every request with latency and status.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := float64(time.Since(start).Microseconds()) / 1000.0
		log.WithContext(c.Request.Context()).HTTPRequest(
			c.Request.Method,
			c.FullPath(),
			c.Writer.Status(),
			latency,
			c.ClientIP(),
		)
	}
}

// APIKey guards machine-to-machine routes with a shared key header.
func APIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			httpkit.Error(c, http.StatusServiceUnavailable, "api key not configured", nil)
			c.Abort()
			return
		}
		provided := c.GetHeader("X-Api-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			httpkit.Error(c, http.StatusUnauthorized, "invalid api key", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
