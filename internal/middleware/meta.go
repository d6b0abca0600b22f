package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{"started_at": time.Now()})
		c.Next()
	}
}

// ResponseMeta returns the metadata for the current response with
// processing_time_ms filled in. It is safe to call without WithResponseMeta.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	meta := map[string]interface{}{}
	if value, exists := c.Get(responseMetaKey); exists {
		if typed, ok := value.(map[string]interface{}); ok {
			for k, v := range typed {
				meta[k] = v
			}
		}
	}
	if started, ok := meta["started_at"].(time.Time); ok {
		meta["processing_time_ms"] = time.Since(started).Milliseconds()
	}
	delete(meta, "started_at")
	return meta
}

// SetMeta records a metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if existing, exists := c.Get(responseMetaKey); exists {
		if typed, ok := existing.(map[string]interface{}); ok {
			typed[key] = value
			return
		}
	}
	c.Set(responseMetaKey, map[string]interface{}{key: value})
}
