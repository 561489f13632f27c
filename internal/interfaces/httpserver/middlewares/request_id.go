package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with a correlation id. An id supplied by the
// caller is kept so generation calls can be traced across services; otherwise
// a fresh UUID is minted. The id lands in the inbound headers, the response
// headers and the gin context, where the error layer picks it up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Request.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(requestIDHeader, id)
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Set(requestIDHeader, id)
		c.Next()
	}
}

// RequestIDFromContext returns the correlation id set by RequestID, or empty
// when the middleware did not run.
func RequestIDFromContext(c *gin.Context) string {
	val, _ := c.Get(requestIDHeader)
	id, _ := val.(string)
	return id
}
