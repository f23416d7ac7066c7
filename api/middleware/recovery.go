package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/pkg/logger"
)

// Recovery turns a handler panic into a 500 JSON error. The panic and its
// stack are logged, and also written to the error category when errLog is set.
func Recovery(log *zap.Logger, errLog *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			fields := []zap.Field{
				zap.String("panic", fmt.Sprint(rec)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.ByteString("stack", debug.Stack()),
			}
			log.Error("Panic recovered", fields...)
			if errLog != nil {
				errLog.LogAppError("Panic recovered", fields...)
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
				"code":  "internal",
			})
		}()
		c.Next()
	}
}
