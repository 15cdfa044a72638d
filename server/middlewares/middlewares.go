package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	Logger "github.com/jotagep/redditlens/utils/log"
)

// RequestLogger logs every request with its status and latency through the
// shared structured logger, so api traffic shows up next to pipeline logs.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		Logger.Log.WithFields(map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request handled")
	}
}
