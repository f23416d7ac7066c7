package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/pkg/logger"
)

// Logger returns a gin middleware for logging. Server-side failures are also
// written to the error category log when errLog is not nil.
func Logger(log *zap.Logger, errLog *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		log.Info("HTTP request", fields...)

		if statusCode >= 500 && errLog != nil {
			if len(c.Errors) > 0 {
				fields = append(fields, zap.String("error", c.Errors.String()))
			}
			errLog.LogAppError("HTTP error response", fields...)
		}
	}
}
