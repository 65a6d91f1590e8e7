package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"bikeworkshop/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestID keeps the caller's X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		}
		if id := c.GetInt64("user_id"); id != 0 {
			fields = append(fields, zap.Int64("user_id", id))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Info("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

// ErrorLogger logs detailed error information and recovers from panics.
func ErrorLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%v", recovered)
				logRequestError(log, c, start, "panic", err, debug.Stack())
				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong. Please try again later.")
				c.Abort()
				return
			}

			for _, e := range c.Errors {
				logRequestError(log, c, start, fmt.Sprintf("%v", e.Type), e.Err, nil)
			}
		}()

		c.Next()
	}
}

func logRequestError(log *zap.Logger, c *gin.Context, start time.Time, errType string, err error, stack []byte) {
	fields := []zap.Field{
		zap.String("type", errType),
		zap.Int("status", c.Writer.Status()),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("query", c.Request.URL.RawQuery),
		zap.Int64("user_id", c.GetInt64("user_id")),
		zap.String("role", c.GetString("role")),
		zap.String("request_id", c.GetString("request_id")),
		zap.Duration("latency", time.Since(start)),
		zap.Error(err),
	}
	if stack != nil {
		fields = append(fields, zap.ByteString("stack", stack))
	}
	log.Error("request_error", fields...)
}
