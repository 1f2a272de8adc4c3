package middleware

import (
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Sentry gives each request its own hub, cloned from the global one, so
// events captured while serving it carry the request and correlation ID.
// With Sentry disabled the hub has no client and capturing is a no-op.
func Sentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		if rid := GetRequestID(c); rid != "" {
			hub.Scope().SetTag("request_id", rid)
		}
		c.Request = c.Request.WithContext(sentry.SetHubOnContext(c.Request.Context(), hub))
		c.Next()
	}
}
