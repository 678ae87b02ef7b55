package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/piyushdatta/senseboard-server/internal/logger"
)

// requestLogger logs one structured line per request (SPEC_FULL.md §A:
// "structured request logging middleware... mirroring the teacher's
// internal/http/middleware package").
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	reqLog := log.With("component", "httpapi.requestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		reqLog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
