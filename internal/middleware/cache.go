package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// ResponseMeta is the per-request state rendered into the envelope's meta.
type ResponseMeta struct {
	StartedAt time.Time
	CacheHit  *bool
}

// Map renders the metadata, timing the request up to the moment of the call.
func (m *ResponseMeta) Map() map[string]interface{} {
	out := map[string]interface{}{}
	if m == nil {
		return out
	}
	if m.CacheHit != nil {
		out["cache_hit"] = *m.CacheHit
	}
	if !m.StartedAt.IsZero() {
		out["processing_time_ms"] = time.Since(m.StartedAt).Milliseconds()
	}
	return out
}

// WithResponseMeta starts the request clock and stores a ResponseMeta on the context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &ResponseMeta{StartedAt: time.Now()})
		c.Next()
	}
}

// Meta returns the request's ResponseMeta, creating an untimed one when the
// middleware did not run.
func Meta(c *gin.Context) *ResponseMeta {
	if value, ok := c.Get(responseMetaKey); ok {
		if meta, ok := value.(*ResponseMeta); ok {
			return meta
		}
	}
	meta := &ResponseMeta{}
	c.Set(responseMetaKey, meta)
	return meta
}

// SetCacheHit records whether the response was served from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	Meta(c).CacheHit = &hit
}
