package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger logs each request and its response with a generated request id,
// which is also returned in the X-Request-ID header.
func RequestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := uuid.New().String()
		start := time.Now()

		c.Set("request_id", reqID)
		c.Header(RequestIDHeader, reqID)

		c.Next()

		log.Infow("request",
			"request_id", reqID,
			"method", c.Request.Method,
			"uri", c.Request.RequestURI,
			"route", c.FullPath(),
			"duration", time.Since(start),
		)

		log.Infow("response",
			"request_id", reqID,
			"status", c.Writer.Status(),
			"response_size", c.Writer.Size(),
		)
	}
}
