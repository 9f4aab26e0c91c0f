package middleware

import (
	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader carries the request ID in and out
	CorrelationIDHeader = "X-Request-ID"
	// CorrelationIDKey is the gin context key
	CorrelationIDKey = "correlation_id"
)

// CorrelationID reuses the caller's request ID or assigns a new one. The ID
// is echoed in the response and attached to the request context so service
// logs carry it.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(CorrelationIDKey, id)
		c.Writer.Header().Set(CorrelationIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithCorrelationID(c.Request.Context(), id))

		c.Next()
	}
}

// GetCorrelationID returns the request ID set by CorrelationID
func GetCorrelationID(c *gin.Context) string {
	id, _ := c.Get(CorrelationIDKey)
	s, _ := id.(string)
	return s
}
