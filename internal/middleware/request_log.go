package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cedarwell/actbridge-backend/internal/pkg/ctxutil"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
)

// RequestLog tags each request with a request id and emits one structured
// line per request. Bodies are never logged.
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("middleware", "RequestLog")
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", requestID)

		ctx := c.Request.Context()
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			rd.RequestID = requestID
		} else {
			c.Request = c.Request.WithContext(
				ctxutil.WithRequestData(ctx, &ctxutil.RequestData{RequestID: requestID}),
			)
		}

		c.Next()

		reqLog.Info("Request completed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		)
	}
}
